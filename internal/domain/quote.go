package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// StockQuote is the latest price for one symbol. Price and ChangePercent are
// nil when the provider failed for that symbol or omitted a field.
type StockQuote struct {
	Symbol        string           `json:"symbol"`                   // Canonical uppercase symbol (e.g., "AAPL")
	Price         *decimal.Decimal `json:"price,omitempty"`          // Current price
	ChangePercent *decimal.Decimal `json:"change_percent,omitempty"` // Change vs previous close (%)
}

// NewStockQuote builds a quote and derives ChangePercent:
// 100 * (current - previousClose) / previousClose.
// ChangePercent stays nil when either operand is missing or previousClose is zero.
func NewStockQuote(symbol string, current, previousClose *decimal.Decimal) StockQuote {
	q := StockQuote{Symbol: symbol, Price: current}
	if current == nil || previousClose == nil || previousClose.IsZero() {
		return q
	}
	change := current.Sub(*previousClose).Div(*previousClose).Mul(hundred)
	q.ChangePercent = &change
	return q
}

// IsNegative reports whether the quote moved down.
func (q StockQuote) IsNegative() bool {
	return q.ChangePercent != nil && q.ChangePercent.IsNegative()
}

// ChangeDirection returns "positive", "negative", or "neutral"
func (q StockQuote) ChangeDirection() string {
	if q.ChangePercent == nil {
		return "neutral"
	}
	if q.ChangePercent.IsPositive() {
		return "positive"
	}
	if q.ChangePercent.IsNegative() {
		return "negative"
	}
	return "neutral"
}

// PriceText formats the price as "$123.45", or "N/A".
func (q StockQuote) PriceText() string {
	if q.Price == nil {
		return "N/A"
	}
	return "$" + q.Price.StringFixed(2)
}

// ChangeText formats the change as "+1.23%", or "N/A".
func (q StockQuote) ChangeText() string {
	if q.ChangePercent == nil {
		return "N/A"
	}
	sign := ""
	if q.ChangePercent.IsPositive() {
		sign = "+"
	}
	return sign + q.ChangePercent.StringFixed(2) + "%"
}

// StockDisplay is what a surface renders for one stock cell.
type StockDisplay struct {
	Symbol     string `json:"symbol"`
	PriceText  string `json:"price_text"`
	ChangeText string `json:"change_text"`
	IsNegative bool   `json:"is_negative"`
}

// Display converts a quote into its rendered texts.
func (q StockQuote) Display() StockDisplay {
	return StockDisplay{
		Symbol:     q.Symbol,
		PriceText:  q.PriceText(),
		ChangeText: q.ChangeText(),
		IsNegative: q.IsNegative(),
	}
}

// FallbackStocks is rendered whenever the quote feed is empty.
var FallbackStocks = []StockDisplay{
	{Symbol: "ADD", PriceText: "$YOUR.API", ChangeText: "+KEY%"},
	{Symbol: "TO", PriceText: "$SEE", ChangeText: "+STOCKS%"},
	{Symbol: "GET", PriceText: "$LIVE", ChangeText: "+DATA%"},
	{Symbol: "STOCKS", PriceText: "$HERE", ChangeText: "+NOW%"},
}

// StockDisplays renders quotes, falling back to the sample cells when empty.
func StockDisplays(quotes []StockQuote) []StockDisplay {
	if len(quotes) == 0 {
		return FallbackStocks
	}
	out := make([]StockDisplay, len(quotes))
	for i, q := range quotes {
		out[i] = q.Display()
	}
	return out
}
