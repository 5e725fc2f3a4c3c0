package api

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PurchaseType identifies what is being bought.
type PurchaseType string

const (
	PurchaseMembership PurchaseType = "membership"
	PurchasePromotion  PurchaseType = "promotion"
)

// PurchaseIntent identifies the plan (and, for promotions, the listing) a
// checkout session is being opened for.
type PurchaseIntent struct {
	Type      PurchaseType
	PlanID    string
	ListingID string
}

// Plan is the thing being purchased. Immutable for the session; supplied by
// the caller when the session is opened.
type Plan struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// BillingField is one server-supplied billing form field definition.
type BillingField struct {
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Required    bool   `json:"required"`
	Value       string `json:"value,omitempty"`
}

// FieldRule describes per-country handling of a billing sub-field.
type FieldRule struct {
	Required bool `json:"required"`
	Hidden   bool `json:"hidden"`
}

// LocaleRule is backend-supplied per-country metadata describing which billing
// sub-fields are required or hidden, plus label overrides.
type LocaleRule struct {
	State    FieldRule         `json:"state"`
	Postcode FieldRule         `json:"postcode"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// Country is one entry of the billing country list.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// State is one entry of a per-country state list.
type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AddressData groups the address book of the checkout bootstrap payload.
type AddressData struct {
	Countries     []Country             `json:"countries"`
	CountryLocale map[string]LocaleRule `json:"country_locale"`
	States        map[string][]State    `json:"states"`
}

// Gateway is one backend-configured payment method. ID selects the adapter
// variant; ConfirmURL and VerifyURL are the per-gateway endpoints used by the
// card-challenge and native-SDK protocols.
type Gateway struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Icon         string `json:"icon,omitempty"`
	Description  string `json:"description,omitempty"`
	Key          string `json:"key,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	ConfirmURL   string `json:"confirm_url,omitempty"`
	VerifyURL    string `json:"verify_url,omitempty"`
	CheckoutURL  string `json:"checkout_url,omitempty"`
}

// CheckoutData is the checkout bootstrap payload.
type CheckoutData struct {
	BillingFields          map[string]BillingField `json:"billingFields"`
	Address                AddressData             `json:"address"`
	Gateways               []Gateway               `json:"gateways"`
	BillingAddressDisabled bool                    `json:"billingAddressDisabled,omitempty"`
}

// CouponInfo is the result of a successful coupon validation.
type CouponInfo struct {
	Discount decimal.Decimal `json:"discount"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CheckoutRequest is the submission payload for the checkout endpoint.
// Billing carries the billing form values keyed by their schema keys; Extra
// carries gateway-specific fields (card token, raw card data, return URLs).
type CheckoutRequest struct {
	Type           PurchaseType
	PlanID         string
	GatewayID      string
	ListingID      string
	CouponCode     string
	Billing        map[string]string
	Extra          map[string]string
	IdempotencyKey string
}

// payload flattens the request into the wire shape the backend expects:
// billing and gateway-specific fields are carried at the top level beside the
// fixed keys.
func (r CheckoutRequest) payload() map[string]any {
	p := map[string]any{
		"type":       string(r.Type),
		"plan_id":    r.PlanID,
		"gateway_id": r.GatewayID,
	}
	if r.ListingID != "" {
		p["listing_id"] = r.ListingID
	}
	if r.CouponCode != "" {
		p["coupon_code"] = r.CouponCode
	}
	for k, v := range r.Billing {
		p[k] = v
	}
	for k, v := range r.Extra {
		p[k] = v
	}
	return p
}

// OrderData is the server's final representation of an order. Opaque display
// data once received; the client never re-interprets it.
type OrderData struct {
	ID            int64           `json:"id"`
	Method        string          `json:"method"`
	Price         decimal.Decimal `json:"price"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	PlanDetails   map[string]any  `json:"plan,omitempty"`
}

// NativeOrderParams are the SDK-specific order parameters returned for the
// native-SDK gateway variant.
type NativeOrderParams struct {
	Key      string `json:"key"`
	OrderID  string `json:"order_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Name     string `json:"name,omitempty"`
}

// CheckoutResponse is the checkout endpoint response. Exactly one of three
// shapes is populated: a terminal order (OrderData fields), a card-challenge
// demand (RequiresAction + client secret), or a handoff (Redirect or
// CheckoutData).
type CheckoutResponse struct {
	OrderData

	Success        bool   `json:"success"`
	RequiresAction bool   `json:"requiresAction,omitempty"`
	ClientSecret   string `json:"payment_intent_client_secret,omitempty"`

	Redirect     string             `json:"redirect,omitempty"`
	CheckoutData *NativeOrderParams `json:"checkout_data,omitempty"`

	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// VerifyRequest is the native-SDK payment verification payload. Signature
// fields are gateway-specific and posted verbatim alongside payment_id.
type VerifyRequest struct {
	PaymentID string
	Signature map[string]string
}

// Profile is the authenticated user's profile as returned by the profile
// endpoint. Billing seeds fall back to these attributes when the schema
// carries no default.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Company   string `json:"company"`
}

// BillingAttr maps a billing field key (with the "billing_" prefix stripped)
// to the matching profile attribute. Unknown keys yield an empty string.
func (p *Profile) BillingAttr(fieldKey string) string {
	if p == nil {
		return ""
	}
	switch strings.TrimPrefix(fieldKey, "billing_") {
	case "email":
		return p.Email
	case "first_name":
		return p.FirstName
	case "last_name":
		return p.LastName
	case "phone":
		return p.Phone
	case "address_1", "address":
		return p.Address1
	case "address_2":
		return p.Address2
	case "city":
		return p.City
	case "state":
		return p.State
	case "postcode":
		return p.Postcode
	case "country":
		return p.Country
	case "company":
		return p.Company
	default:
		return ""
	}
}
