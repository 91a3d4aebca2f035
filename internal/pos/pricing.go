package pos

// DefaultPrepMinutes applies to line items that carry no preparation time
// of their own.
const DefaultPrepMinutes = 5

// PriceQuote is the pricing breakdown written onto a dispatched order.
type PriceQuote struct {
	Subtotal float64
	Discount float64
	Tax      float64
	Total    float64
}

// QuoteItems prices a batch of line items against the current settings:
// subtotal sums (unit price + extras) per quantity, the active price
// list's discount comes off the subtotal, tax applies to the discounted
// amount.
func QuoteItems(items []LineItem, settings *Settings) PriceQuote {
	var quote PriceQuote

	for _, item := range items {
		unit := item.UnitPrice
		for _, extra := range item.Added {
			unit += extra.Price
		}
		quote.Subtotal += unit * float64(item.Quantity)
	}

	if pl := settings.ActivePriceList(); pl != nil {
		quote.Discount = quote.Subtotal * pl.DiscountPercent / 100
	}
	if settings != nil {
		quote.Tax = (quote.Subtotal - quote.Discount) * settings.TaxRatePercent / 100
	}
	quote.Total = quote.Subtotal - quote.Discount + quote.Tax

	return quote
}

// PrepMinutes sums each item's preparation time (defaulting to
// DefaultPrepMinutes) scaled by quantity. Independent of pricing.
func PrepMinutes(items []LineItem) int {
	total := 0
	for _, item := range items {
		minutes := item.PrepMinutes
		if minutes == 0 {
			minutes = DefaultPrepMinutes
		}
		total += minutes * item.Quantity
	}
	return total
}
