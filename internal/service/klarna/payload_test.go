package klarna

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/saleor"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
)

func checkoutEvent() *saleor.TransactionEvent {
	price, method := standardShipping()
	return &saleor.TransactionEvent{
		Transaction: saleor.Transaction{ID: "tx-1"},
		Action: saleor.TransactionAction{
			Amount:     decimal.NewFromFloat(25.00),
			Currency:   "SEK",
			ActionType: saleor.FlowAuthorization,
		},
		Recipient: &saleor.App{ID: "app-1"},
		Data:      json.RawMessage(`{}`),
		SourceObject: saleor.SourceObject{
			Typename:  saleor.SourceCheckout,
			ID:        "checkout-1",
			Channel:   saleor.Channel{ID: "channel-1", Slug: "default", CurrencyCode: "SEK"},
			UserEmail: "buyer@example.com",
			BillingAddress: &saleor.Address{
				FirstName: "Anna",
				Country:   saleor.Country{Code: "SE"},
			},
			Lines:          []saleor.Line{physicalCheckoutLine()},
			ShippingPrice:  price,
			DeliveryMethod: method,
		},
	}
}

func assembleParams() AssembleParams {
	return AssembleParams{
		Locale: "sv-SE",
		MerchantURLs: MerchantURLs{
			Terms:        "https://shop.example/terms",
			Checkout:     "https://shop.example/checkout",
			Confirmation: "https://shop.example/confirmation",
			Push:         "https://shop.example/push",
		},
		AppBaseURL:   "https://bridge.example",
		SaleorAPIURL: "https://saleor.example/graphql/",
	}
}

func TestBuildMetadata(t *testing.T) {
	t.Run("checkout source", func(t *testing.T) {
		meta, err := BuildMetadata("tx-1", saleor.SourceObject{
			Typename: saleor.SourceCheckout,
			ID:       "checkout-1",
			Channel:  saleor.Channel{ID: "channel-1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "checkout-1", meta.CheckoutID)
		assert.Empty(t, meta.OrderID)
	})

	t.Run("order source", func(t *testing.T) {
		meta, err := BuildMetadata("tx-1", saleor.SourceObject{
			Typename: saleor.SourceOrder,
			ID:       "order-1",
			Channel:  saleor.Channel{ID: "channel-1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "order-1", meta.OrderID)
		assert.Empty(t, meta.CheckoutID)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := BuildMetadata("tx-1", saleor.SourceObject{Typename: "GiftCard", ID: "g-1"})
		assert.ErrorIs(t, err, errors.ErrInvariantViolation)
	})
}

func TestAssemble(t *testing.T) {
	assembled, err := Assemble(checkoutEvent(), assembleParams())
	require.NoError(t, err)
	order := assembled.Order

	assert.Equal(t, "sv-SE", order.Locale)
	assert.Equal(t, "SE", order.PurchaseCountry)
	assert.Equal(t, "SEK", order.PurchaseCurrency)
	assert.Equal(t, int64(2500), order.OrderAmount)
	assert.Equal(t, int64(500), order.OrderTaxAmount, "order tax is the sum of line and shipping tax")
	require.Len(t, order.OrderLines, 2)

	assert.Equal(t, "tx-1", order.MerchantReference1)
	assert.Equal(t, "checkout-1", order.MerchantReference2)

	require.NotNil(t, order.BillingAddress)
	assert.Equal(t, "buyer@example.com", order.BillingAddress.Email)
	assert.Nil(t, order.ShippingAddress)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(order.MerchantData), &meta))
	assert.Equal(t, Metadata{
		TransactionID: "tx-1",
		ChannelID:     "channel-1",
		CheckoutID:    "checkout-1",
	}, meta)

	// The authorization callback is built but deliberately not attached.
	assert.Empty(t, order.MerchantURLs.Authorization)
	assert.Equal(t, "https://shop.example/push", order.MerchantURLs.Push)
}

func TestAssembleCallbackURL(t *testing.T) {
	assembled, err := Assemble(checkoutEvent(), assembleParams())
	require.NoError(t, err)

	u, err := url.Parse(assembled.AuthorizationCallbackURL)
	require.NoError(t, err)
	assert.Equal(t, "bridge.example", u.Host)
	assert.Equal(t, "/api/webhooks/klarna/checkout/authorization", u.Path)
	assert.Equal(t, "tx-1", u.Query().Get("transactionId"))
	assert.Equal(t, "channel-1", u.Query().Get("channelId"))
	assert.Equal(t, "https://saleor.example/graphql/", u.Query().Get("saleorApiUrl"))
}

func TestAssembleMissingCountry(t *testing.T) {
	t.Run("no billing address", func(t *testing.T) {
		event := checkoutEvent()
		event.SourceObject.BillingAddress = nil
		_, err := Assemble(event, assembleParams())
		assert.ErrorIs(t, err, errors.ErrMissingCountry)
	})

	t.Run("billing address without country", func(t *testing.T) {
		event := checkoutEvent()
		event.SourceObject.BillingAddress = &saleor.Address{FirstName: "Anna"}
		_, err := Assemble(event, assembleParams())
		assert.ErrorIs(t, err, errors.ErrMissingCountry)
	})
}

func TestAssembleOrderSource(t *testing.T) {
	event := checkoutEvent()
	event.SourceObject.Typename = saleor.SourceOrder
	event.SourceObject.ID = "order-7"
	event.SourceObject.Lines[0].Typename = saleor.LineOrder
	event.SourceObject.Lines[0].OrderVariant = event.SourceObject.Lines[0].CheckoutVariant
	event.SourceObject.Lines[0].CheckoutVariant = nil

	assembled, err := Assemble(event, assembleParams())
	require.NoError(t, err)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(assembled.Order.MerchantData), &meta))
	assert.Equal(t, "order-7", meta.OrderID)
	assert.Empty(t, meta.CheckoutID)
	assert.Equal(t, "order-7", assembled.Order.MerchantReference2)
}

func TestAssembleUnsupportedActionCurrency(t *testing.T) {
	event := checkoutEvent()
	event.Action.Currency = "XYZ"
	event.SourceObject.Lines = nil
	event.SourceObject.ShippingPrice = nil
	event.SourceObject.DeliveryMethod = nil

	_, err := Assemble(event, assembleParams())
	assert.ErrorIs(t, err, errors.ErrUnsupportedCurrency)
}
