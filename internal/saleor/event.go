package saleor

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TransactionFlow is the platform's requested payment flow for a session.
type TransactionFlow string

const (
	FlowAuthorization TransactionFlow = "AUTHORIZATION"
	FlowCharge        TransactionFlow = "CHARGE"
)

// TransactionEvent is the TRANSACTION_INITIALIZE_SESSION webhook event as
// delivered by the platform. It arrives already authenticated and parsed by
// the webhook dispatcher; every invocation receives a fresh, immutable event.
type TransactionEvent struct {
	Transaction       Transaction       `json:"transaction"`
	Action            TransactionAction `json:"action"`
	SourceObject      SourceObject      `json:"sourceObject"`
	MerchantReference string            `json:"merchantReference"`
	IssuingPrincipal  *Principal        `json:"issuingPrincipal"`
	Recipient         *App              `json:"recipient"`
	Data              json.RawMessage   `json:"data"`
}

// Transaction identifies the platform-side transaction the session is for.
type Transaction struct {
	ID string `json:"id"`
}

// TransactionAction carries the amount, currency and flow requested by the
// platform for this session.
type TransactionAction struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	ActionType TransactionFlow `json:"actionType"`
}

// Principal is the user or app that triggered the event.
type Principal struct {
	ID string `json:"id"`
}

// App is the recipient app of the webhook. PrivateMetadata holds the
// serialized payment app configuration.
type App struct {
	ID              string            `json:"id"`
	PrivateMetadata map[string]string `json:"privateMetadata"`
}

// SourceObjectType discriminates the checkout/order union.
type SourceObjectType string

const (
	SourceCheckout SourceObjectType = "Checkout"
	SourceOrder    SourceObjectType = "Order"
)

// SourceObject is the checkout or order the transaction event is about,
// discriminated by Typename.
type SourceObject struct {
	Typename        SourceObjectType `json:"__typename"`
	ID              string           `json:"id"`
	Channel         Channel          `json:"channel"`
	BillingAddress  *Address         `json:"billingAddress"`
	ShippingAddress *Address         `json:"shippingAddress"`
	UserEmail       string           `json:"userEmail"`
	Lines           []Line           `json:"lines"`
	ShippingPrice   *TaxedMoney      `json:"shippingPrice"`
	DeliveryMethod  *DeliveryMethod  `json:"deliveryMethod"`
}

// Channel is the sales channel the source object belongs to. Channel id keys
// the per-channel provider configuration.
type Channel struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	CurrencyCode string `json:"currencyCode"`
}

// Address is a platform address. A nil *Address means no address at all,
// which is distinct from an address with empty fields.
type Address struct {
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	StreetAddress1 string  `json:"streetAddress1"`
	StreetAddress2 string  `json:"streetAddress2"`
	PostalCode     string  `json:"postalCode"`
	City           string  `json:"city"`
	CountryArea    string  `json:"countryArea"`
	Phone          string  `json:"phone"`
	Country        Country `json:"country"`
}

type Country struct {
	Code string `json:"code"`
}

// DeliveryMethodType discriminates shipping methods from pickup points.
type DeliveryMethodType string

const (
	DeliveryShippingMethod DeliveryMethodType = "ShippingMethod"
	DeliveryWarehouse      DeliveryMethodType = "Warehouse"
)

// DeliveryMethod is the delivery method chosen on a checkout or order. Only
// the ShippingMethod variant yields a shipping-fee line.
type DeliveryMethod struct {
	Typename DeliveryMethodType `json:"__typename"`
	ID       string             `json:"id"`
	Name     string             `json:"name"`
}

// LineType discriminates the checkout/order line union.
type LineType string

const (
	LineCheckout LineType = "CheckoutLine"
	LineOrder    LineType = "OrderLine"
)

// Line is a purchasable line of a checkout or order. The product variant
// lives in CheckoutVariant or OrderVariant depending on Typename.
type Line struct {
	Typename         LineType        `json:"__typename"`
	Quantity         int             `json:"quantity"`
	RequiresShipping bool            `json:"requiresShipping"`
	UnitPrice        TaxedMoney      `json:"unitPrice"`
	TotalPrice       TaxedMoney      `json:"totalPrice"`
	CheckoutVariant  *ProductVariant `json:"checkoutVariant"`
	OrderVariant     *ProductVariant `json:"orderVariant"`
}

// ProductVariant references the purchased variant of a product.
type ProductVariant struct {
	ID      string  `json:"id"`
	SKU     string  `json:"sku"`
	Name    string  `json:"name"`
	Product Product `json:"product"`
}

type Product struct {
	Name      string `json:"name"`
	Thumbnail *Image `json:"thumbnail"`
}

type Image struct {
	URL string `json:"url"`
}

// Money is an amount in major units with its ISO-4217 currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// TaxedMoney is a price with its gross, net and tax breakdown.
type TaxedMoney struct {
	Gross Money `json:"gross"`
	Net   Money `json:"net"`
	Tax   Money `json:"tax"`
}
