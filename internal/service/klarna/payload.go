package klarna

import (
	"net/url"

	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/saleor"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/json"
)

// authorizationCallbackPath is where the provider would call back once the
// buyer authorizes the order. The URL is built and logged but not yet wired
// into merchant_urls; see Assemble.
const authorizationCallbackPath = "/api/webhooks/klarna/checkout/authorization"

// Metadata is embedded in merchant_data and echoed back unchanged by the
// provider on later callbacks, re-identifying the originating transaction.
// Exactly one of CheckoutID/OrderID is set, per the source object's variant.
type Metadata struct {
	TransactionID string `json:"transactionId"`
	ChannelID     string `json:"channelId"`
	CheckoutID    string `json:"checkoutId,omitempty"`
	OrderID       string `json:"orderId,omitempty"`
}

// BuildMetadata derives the callback metadata from the event's source object.
func BuildMetadata(transactionID string, source saleor.SourceObject) (Metadata, error) {
	metadata := Metadata{
		TransactionID: transactionID,
		ChannelID:     source.Channel.ID,
	}
	switch source.Typename {
	case saleor.SourceCheckout:
		metadata.CheckoutID = source.ID
	case saleor.SourceOrder:
		metadata.OrderID = source.ID
	default:
		return Metadata{}, errors.Invariant("unknown source object type: %q", source.Typename)
	}
	return metadata, nil
}

// MerchantURLs is the provider's merchant callback URL set.
type MerchantURLs struct {
	Terms         string `json:"terms,omitempty"`
	Checkout      string `json:"checkout,omitempty"`
	Confirmation  string `json:"confirmation,omitempty"`
	Push          string `json:"push,omitempty"`
	Authorization string `json:"authorization,omitempty"`
}

// CheckoutOrder is the provider's order-creation request.
type CheckoutOrder struct {
	Locale             string       `json:"locale"`
	PurchaseCountry    string       `json:"purchase_country"`
	PurchaseCurrency   string       `json:"purchase_currency"`
	BillingAddress     *Address     `json:"billing_address,omitempty"`
	ShippingAddress    *Address     `json:"shipping_address,omitempty"`
	OrderAmount        int64        `json:"order_amount"`
	OrderTaxAmount     int64        `json:"order_tax_amount"`
	OrderLines         []OrderLine  `json:"order_lines"`
	MerchantReference1 string       `json:"merchant_reference1"`
	MerchantReference2 string       `json:"merchant_reference2"`
	MerchantData       string       `json:"merchant_data"`
	MerchantURLs       MerchantURLs `json:"merchant_urls"`
}

// AssembleParams carries the non-event inputs of payload assembly.
type AssembleParams struct {
	// Locale sent to the provider for the checkout.
	Locale string
	// MerchantURLs for the outbound payload. The authorization callback is
	// deliberately not set here; it is returned separately until the
	// confirmation flow lands.
	MerchantURLs MerchantURLs
	// AppBaseURL is this app's own public base URL, used for the
	// authorization callback URL.
	AppBaseURL string
	// SaleorAPIURL identifies the installing platform instance and rides
	// along on the callback URL so the callback can be routed back.
	SaleorAPIURL string
}

// AssembledOrder is the result of payload assembly: the provider request plus
// the authorization callback URL, which the caller logs but does not yet
// attach to the payload.
type AssembledOrder struct {
	Order                    *CheckoutOrder
	AuthorizationCallbackURL string
}

// Assemble builds the full provider order-creation request from a transaction
// event. The billing country is mandatory; order_tax_amount is the sum of all
// line tax amounts including the synthetic shipping line.
func Assemble(event *saleor.TransactionEvent, params AssembleParams) (*AssembledOrder, error) {
	source := event.SourceObject

	if source.BillingAddress == nil || source.BillingAddress.Country.Code == "" {
		return nil, errors.ErrMissingCountry
	}
	country := source.BillingAddress.Country.Code

	metadata, err := BuildMetadata(event.Transaction.ID, source)
	if err != nil {
		return nil, err
	}
	merchantData, err := json.MarshalToString(metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize metadata")
	}

	orderLines, err := BuildOrderLines(source.Lines, source.ShippingPrice, source.DeliveryMethod)
	if err != nil {
		return nil, err
	}
	var orderTaxAmount int64
	for _, line := range orderLines {
		orderTaxAmount += line.TotalTaxAmount
	}

	orderAmount, err := ToMinorUnits(event.Action.Amount, event.Action.Currency)
	if err != nil {
		return nil, err
	}

	callbackURL, err := authorizationCallbackURL(params.AppBaseURL, event.Transaction.ID, source.Channel.ID, params.SaleorAPIURL)
	if err != nil {
		return nil, err
	}

	email := source.UserEmail
	order := &CheckoutOrder{
		Locale:             params.Locale,
		PurchaseCountry:    country,
		PurchaseCurrency:   event.Action.Currency,
		BillingAddress:     PrepareRequestAddress(source.BillingAddress, email),
		ShippingAddress:    PrepareRequestAddress(source.ShippingAddress, email),
		OrderAmount:        orderAmount,
		OrderTaxAmount:     orderTaxAmount,
		OrderLines:         orderLines,
		MerchantReference1: event.Transaction.ID,
		MerchantReference2: source.ID,
		MerchantData:       merchantData,
		MerchantURLs:       params.MerchantURLs,
	}

	return &AssembledOrder{
		Order:                    order,
		AuthorizationCallbackURL: callbackURL,
	}, nil
}

// authorizationCallbackURL appends the identifiers the callback handler needs
// to re-resolve the transaction: transactionId, channelId and the platform
// API URL the app was installed on.
func authorizationCallbackURL(appBaseURL, transactionID, channelID, saleorAPIURL string) (string, error) {
	u, err := url.Parse(appBaseURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid app base URL")
	}
	u.Path = authorizationCallbackPath
	q := u.Query()
	q.Set("transactionId", transactionID)
	q.Set("channelId", channelID)
	q.Set("saleorApiUrl", saleorAPIURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
