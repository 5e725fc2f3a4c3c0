package checkout

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

var (
	ErrEmptyCatalog = errors.New("catalog contains no checkout data")
	ErrPlanNotFound = errors.New("plan not found in catalog")
)

// Catalog is a static stand-in for the live backend: the purchasable plans
// plus the checkout bootstrap payload (payment methods, billing schema,
// address book).
type Catalog struct {
	Plans    []api.Plan
	Checkout *api.CheckoutData
}

// Plan looks up a plan by ID.
func (c *Catalog) Plan(id string) (api.Plan, bool) {
	for _, p := range c.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return api.Plan{}, false
}

// CatalogSource loads a catalog for offline or preview use.
type CatalogSource interface {
	Load(ctx context.Context) (*Catalog, error)
}

type staticSource struct {
	catalog Catalog
}

// NewStaticSource returns an in-memory CatalogSource.
// Panics if the catalog has no plans to ensure preview mode always has
// something to render.
func NewStaticSource(catalog Catalog) CatalogSource {
	if len(catalog.Plans) == 0 {
		panic("checkout: catalog requires at least one plan")
	}
	return &staticSource{catalog: catalog}
}

func (s *staticSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.catalog
	return &out, nil
}

type yamlSource struct {
	path string
}

// NewYAMLSource returns a CatalogSource reading the catalog from a YAML file
// on every Load, so a preview fixture can be edited without restarting.
func NewYAMLSource(path string) CatalogSource {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}
	return ParseCatalog(raw)
}

// yamlCatalog is the file shape. Prices are strings to survive YAML float
// rounding; api wire types are rebuilt from these fields.
type yamlCatalog struct {
	Plans []struct {
		ID    string `yaml:"id"`
		Title string `yaml:"title"`
		Price string `yaml:"price"`
	} `yaml:"plans"`
	Gateways []struct {
		ID          string `yaml:"id"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		CheckoutURL string `yaml:"checkout_url"`
	} `yaml:"gateways"`
	BillingFields map[string]struct {
		Label       string `yaml:"label"`
		Placeholder string `yaml:"placeholder"`
		Required    bool   `yaml:"required"`
		Value       string `yaml:"value"`
	} `yaml:"billing_fields"`
	Countries []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"countries"`
	CountryLocale map[string]struct {
		State    yamlFieldRule     `yaml:"state"`
		Postcode yamlFieldRule     `yaml:"postcode"`
		Labels   map[string]string `yaml:"labels"`
	} `yaml:"country_locale"`
	BillingDisabled bool `yaml:"billing_disabled"`
}

type yamlFieldRule struct {
	Required bool `yaml:"required"`
	Hidden   bool `yaml:"hidden"`
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Plans) == 0 {
		return nil, fmt.Errorf("parse catalog: no plans defined")
	}

	catalog := &Catalog{
		Checkout: &api.CheckoutData{
			BillingFields:          make(map[string]api.BillingField, len(doc.BillingFields)),
			BillingAddressDisabled: doc.BillingDisabled,
		},
	}
	for _, p := range doc.Plans {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("parse catalog: plan %q price: %w", p.ID, err)
		}
		catalog.Plans = append(catalog.Plans, api.Plan{ID: p.ID, Title: p.Title, Price: price})
	}
	for _, g := range doc.Gateways {
		catalog.Checkout.Gateways = append(catalog.Checkout.Gateways, api.Gateway{
			ID:          g.ID,
			Title:       g.Title,
			Description: g.Description,
			CheckoutURL: g.CheckoutURL,
		})
	}
	for key, f := range doc.BillingFields {
		catalog.Checkout.BillingFields[key] = api.BillingField{
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Required:    f.Required,
			Value:       f.Value,
		}
	}
	for _, c := range doc.Countries {
		catalog.Checkout.Address.Countries = append(catalog.Checkout.Address.Countries, api.Country{Code: c.Code, Name: c.Name})
	}
	if len(doc.CountryLocale) > 0 {
		catalog.Checkout.Address.CountryLocale = make(map[string]api.LocaleRule, len(doc.CountryLocale))
		for code, rule := range doc.CountryLocale {
			catalog.Checkout.Address.CountryLocale[code] = api.LocaleRule{
				State:    api.FieldRule{Required: rule.State.Required, Hidden: rule.State.Hidden},
				Postcode: api.FieldRule{Required: rule.Postcode.Required, Hidden: rule.Postcode.Hidden},
				Labels:   rule.Labels,
			}
		}
	}
	return catalog, nil
}
