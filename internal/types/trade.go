package types

import "github.com/shopspring/decimal"

// TradeRecord is an executed trade as returned by the recent trades endpoint.
type TradeRecord struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Pair      string          `json:"pair"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	// Result is the settled outcome, e.g. win or loss
	Result string `json:"result"`
	// PnL is the realised profit of the trade, negative for a loss
	PnL decimal.Decimal `json:"pnl"`
}

// IsWin reports whether the trade settled as a win.
func (t TradeRecord) IsWin() bool {
	return t.Result == "win"
}

// TotalPnL sums the realised profit of trades.
func TotalPnL(trades []TradeRecord) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trades {
		total = total.Add(t.PnL)
	}

	return total
}
