package klarna

import (
	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/saleor"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
)

// Order-line types recognized by the provider.
const (
	LineTypePhysical    = "physical"
	LineTypeDigital     = "digital"
	LineTypeShippingFee = "shipping_fee"
)

// OrderLine is one line of the provider's order schema. All monetary fields
// are integer minor units; TaxRate is basis points.
type OrderLine struct {
	Type           string `json:"type"`
	Reference      string `json:"reference"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	ImageURL       string `json:"image_url,omitempty"`
	UnitPrice      int64  `json:"unit_price"`
	TotalAmount    int64  `json:"total_amount"`
	TotalTaxAmount int64  `json:"total_tax_amount"`
	TaxRate        int64  `json:"tax_rate"`
}

// BuildOrderLines maps the source object's lines to provider order lines,
// preserving their order, and appends one synthetic shipping_fee line when a
// shipping-method delivery and a shipping price are both present. A shipping
// method without a price produces no shipping line; pickup-point deliveries
// never do.
func BuildOrderLines(lines []saleor.Line, shippingPrice *saleor.TaxedMoney, deliveryMethod *saleor.DeliveryMethod) ([]OrderLine, error) {
	orderLines := make([]OrderLine, 0, len(lines)+1)

	for _, line := range lines {
		orderLine, err := buildOrderLine(line)
		if err != nil {
			return nil, err
		}
		orderLines = append(orderLines, orderLine)
	}

	if shippingPrice != nil && deliveryMethod != nil && deliveryMethod.Typename == saleor.DeliveryShippingMethod {
		shippingLine, err := buildShippingLine(*shippingPrice, *deliveryMethod)
		if err != nil {
			return nil, err
		}
		orderLines = append(orderLines, shippingLine)
	}

	return orderLines, nil
}

func buildOrderLine(line saleor.Line) (OrderLine, error) {
	variant, err := resolveVariant(line)
	if err != nil {
		return OrderLine{}, err
	}

	lineType := LineTypeDigital
	if line.RequiresShipping {
		lineType = LineTypePhysical
	}

	reference := variant.SKU
	if reference == "" {
		reference = variant.ID
	}

	unitPrice, err := ToMinorUnits(line.UnitPrice.Gross.Amount, line.UnitPrice.Gross.Currency)
	if err != nil {
		return OrderLine{}, err
	}
	totalAmount, err := ToMinorUnits(line.TotalPrice.Gross.Amount, line.TotalPrice.Gross.Currency)
	if err != nil {
		return OrderLine{}, err
	}
	totalTaxAmount, err := ToMinorUnits(line.TotalPrice.Tax.Amount, line.TotalPrice.Tax.Currency)
	if err != nil {
		return OrderLine{}, err
	}

	var imageURL string
	if variant.Product.Thumbnail != nil {
		imageURL = variant.Product.Thumbnail.URL
	}

	return OrderLine{
		Type:           lineType,
		Reference:      reference,
		Name:           variant.Product.Name + " - " + variant.Name,
		Quantity:       line.Quantity,
		ImageURL:       imageURL,
		UnitPrice:      unitPrice,
		TotalAmount:    totalAmount,
		TotalTaxAmount: totalTaxAmount,
		TaxRate:        CalculateTaxRate(line.TotalPrice.Tax.Amount, line.TotalPrice.Net.Amount),
	}, nil
}

func buildShippingLine(price saleor.TaxedMoney, method saleor.DeliveryMethod) (OrderLine, error) {
	grossAmount, err := ToMinorUnits(price.Gross.Amount, price.Gross.Currency)
	if err != nil {
		return OrderLine{}, err
	}
	taxAmount, err := ToMinorUnits(price.Tax.Amount, price.Tax.Currency)
	if err != nil {
		return OrderLine{}, err
	}

	return OrderLine{
		Type:           LineTypeShippingFee,
		Reference:      method.ID,
		Name:           method.Name,
		Quantity:       1,
		UnitPrice:      grossAmount,
		TotalAmount:    grossAmount,
		TotalTaxAmount: taxAmount,
		TaxRate:        CalculateTaxRate(price.Tax.Amount, price.Net.Amount),
	}, nil
}

// resolveVariant picks the variant field matching the line's discriminator.
// Any other tag means the platform sent a line shape this handler was never
// taught, which is malformed input, not a recoverable condition.
func resolveVariant(line saleor.Line) (*saleor.ProductVariant, error) {
	var variant *saleor.ProductVariant
	switch line.Typename {
	case saleor.LineCheckout:
		variant = line.CheckoutVariant
	case saleor.LineOrder:
		variant = line.OrderVariant
	}
	if variant == nil {
		return nil, errors.Invariant("unknown line type: %q", line.Typename)
	}
	return variant, nil
}
