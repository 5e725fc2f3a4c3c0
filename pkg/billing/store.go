package billing

import (
	"sort"
	"strings"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

// Well-known billing field keys the locale rules operate on.
const (
	FieldCountry  = "billing_country"
	FieldState    = "billing_state"
	FieldPostcode = "billing_postcode"
)

// Store owns the billing form shape and data for one checkout session. It is
// not goroutine-safe: the session mutates it from the UI event loop only.
type Store struct {
	schema      map[string]api.BillingField
	fieldOrder  []string
	countries   []api.Country
	states      map[string][]api.State
	localeRules map[string]api.LocaleRule
	disabled    bool

	data     map[string]string
	touched  map[string]struct{}
	required map[string]struct{}

	loaded bool
}

// NewStore creates an empty store; Load must be called before any other
// operation.
func NewStore() *Store {
	return &Store{
		data:     make(map[string]string),
		touched:  make(map[string]struct{}),
		required: make(map[string]struct{}),
	}
}

// Load populates the store from the checkout bootstrap payload and seeds the
// billing data from schema defaults with the user profile as fallback. The
// initial required set is every field the schema flags required.
func (s *Store) Load(data *api.CheckoutData, profile *api.Profile) {
	s.schema = make(map[string]api.BillingField, len(data.BillingFields))
	s.fieldOrder = s.fieldOrder[:0]
	for key, field := range data.BillingFields {
		s.schema[key] = field
		s.fieldOrder = append(s.fieldOrder, key)
	}
	sort.Strings(s.fieldOrder)

	s.countries = data.Address.Countries
	s.states = data.Address.States
	s.localeRules = data.Address.CountryLocale
	s.disabled = data.BillingAddressDisabled

	s.data = make(map[string]string, len(s.schema))
	s.touched = make(map[string]struct{})
	for key, field := range s.schema {
		if field.Value != "" {
			s.data[key] = field.Value
			continue
		}
		if v := profile.BillingAttr(key); v != "" {
			s.data[key] = v
		}
	}

	s.required = make(map[string]struct{})
	for key, field := range s.schema {
		if field.Required {
			s.required[key] = struct{}{}
		}
	}
	// A country may already be seeded from the profile; its locale rule
	// applies from the start.
	s.applyLocaleRule(s.data[FieldCountry])

	s.loaded = true
}

// Disabled reports whether the backend disabled the billing address form for
// this purchase. A disabled form submits no billing data at all.
func (s *Store) Disabled() bool { return s.disabled }

// Countries returns the selectable billing countries.
func (s *Store) Countries() []api.Country { return s.countries }

// StatesFor returns the state list for a country code, if the backend
// supplied one.
func (s *Store) StatesFor(country string) []api.State { return s.states[country] }

// Fields returns the schema field keys in stable (sorted) order.
func (s *Store) Fields() []string {
	out := make([]string, len(s.fieldOrder))
	copy(out, s.fieldOrder)
	return out
}

// Field returns the schema definition for a key.
func (s *Store) Field(key string) (api.BillingField, bool) {
	f, ok := s.schema[key]
	return f, ok
}

// Value returns the current value of a billing field.
func (s *Store) Value(key string) string { return s.data[key] }

// Country returns the currently selected billing country code.
func (s *Store) Country() string { return s.data[FieldCountry] }

// SetField updates one billing field. Changing the country clears the
// dependent state and postcode values (stale selections would not match the
// new country) and recomputes the required narrowing from the new country's
// locale rule.
func (s *Store) SetField(key, value string) {
	s.data[key] = value
	if key != FieldCountry {
		return
	}

	delete(s.data, FieldState)
	delete(s.data, FieldPostcode)
	delete(s.touched, FieldState)
	delete(s.touched, FieldPostcode)
	s.applyLocaleRule(value)
}

// applyLocaleRule recomputes the required set from the schema baseline and
// the given country's rule. Recomputing from the schema keeps narrowing
// monotonic per selection: a rule can only remove state/postcode, never add
// a requirement the schema does not carry.
func (s *Store) applyLocaleRule(country string) {
	s.required = make(map[string]struct{})
	for key, field := range s.schema {
		if field.Required {
			s.required[key] = struct{}{}
		}
	}
	if country == "" {
		return
	}
	rule, ok := s.localeRules[country]
	if !ok {
		return
	}
	if !rule.State.Required || rule.State.Hidden {
		delete(s.required, FieldState)
	}
	if !rule.Postcode.Required || rule.Postcode.Hidden {
		delete(s.required, FieldPostcode)
	}
}

// Hidden reports whether the current country's locale rule hides a field.
func (s *Store) Hidden(key string) bool {
	rule, ok := s.localeRules[s.Country()]
	if !ok {
		return false
	}
	switch key {
	case FieldState:
		return rule.State.Hidden
	case FieldPostcode:
		return rule.Postcode.Hidden
	default:
		return false
	}
}

// Label returns the display label for a field, honoring the current country's
// locale label overrides.
func (s *Store) Label(key string) string {
	if rule, ok := s.localeRules[s.Country()]; ok {
		if override, ok := rule.Labels[strings.TrimPrefix(key, "billing_")]; ok {
			return override
		}
	}
	if field, ok := s.schema[key]; ok && field.Label != "" {
		return field.Label
	}
	return key
}

// Touch marks a field as interacted with. Touched state only gates inline
// error display; validation itself ignores it.
func (s *Store) Touch(key string) {
	s.touched[key] = struct{}{}
}

// Touched reports whether a field has been interacted with (or force-touched
// by a failed submit).
func (s *Store) Touched(key string) bool {
	_, ok := s.touched[key]
	return ok
}

// RequiredKeys returns the current required-field set in sorted order.
func (s *Store) RequiredKeys() []string {
	keys := make([]string, 0, len(s.required))
	for key := range s.required {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsRequired reports whether a field is currently required.
func (s *Store) IsRequired(key string) bool {
	_, ok := s.required[key]
	return ok
}

// Validate returns the required fields (schema-required narrowed by the
// current country's rule, plus any gateway-demanded extras) whose value is
// empty. Every missing key is force-touched so its inline error renders.
// A nil return means submission may proceed.
func (s *Store) Validate(extra ...string) MissingFields {
	if !s.loaded {
		return MissingFields{{Key: "", Label: ErrNotLoaded.Error()}}
	}
	// A disabled form submits no billing data, so nothing can be missing.
	if s.disabled {
		return nil
	}

	seen := make(map[string]struct{}, len(s.required)+len(extra))
	keys := make([]string, 0, len(s.required)+len(extra))
	for key := range s.required {
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	for _, key := range extra {
		if _, ok := seen[key]; ok || key == "" {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var missing MissingFields
	for _, key := range keys {
		if strings.TrimSpace(s.data[key]) != "" {
			continue
		}
		s.touched[key] = struct{}{}
		missing = append(missing, MissingField{Key: key, Label: s.Label(key)})
	}
	return missing
}

// Data returns a copy of the billing data for submission. Returns nil when
// the billing form is disabled for this purchase.
func (s *Store) Data() map[string]string {
	if s.disabled {
		return nil
	}
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
