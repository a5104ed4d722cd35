// Package reconstruct rebuilds per-trade profit from a persisted trade log
// that lacks a stored profit field, replaying a running average-cost ledger
// per instrument. Used only for trades arriving from storage; live
// simulation runs compute profit at execution time.
package reconstruct

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantrail/backtest/internal/types"
	"github.com/shopspring/decimal"
)

// RawTrade is a trade record as loaded from storage, before profit
// reconstruction. Storage order is not guaranteed to match execution order.
type RawTrade struct {
	Code     string    `yaml:"code" json:"code"`
	Date     time.Time `yaml:"date" json:"date"`
	Action   string    `yaml:"action" json:"action"`
	Price    float64   `yaml:"price" json:"price"`
	Quantity float64   `yaml:"quantity" json:"quantity"`
}

// ledgerEntry is the running position for one instrument code.
type ledgerEntry struct {
	quantity decimal.Decimal
	avgCost  decimal.Decimal
}

// Reconstruct replays the raw trades in date order (stable, storage-order
// ties) through a per-code average-cost ledger and returns the trades with
// profit populated on sells, plus the list of assumptions made along the
// way.
//
// Irregular records never fail the batch: a trade missing a required field
// is skipped with a note, and a sell exceeding the ledger quantity costs the
// excess at the sale price (zero profit contribution) with a note.
func Reconstruct(rawTrades []RawTrade) ([]types.Trade, []string) {
	ordered := make([]RawTrade, len(rawTrades))
	copy(ordered, rawTrades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	trades := make([]types.Trade, 0, len(ordered))
	assumptions := []string{}
	ledger := map[string]*ledgerEntry{}

	for i, raw := range ordered {
		action, ok := parseAction(raw.Action)
		if !ok || raw.Code == "" || raw.Price <= 0 || raw.Quantity <= 0 {
			assumptions = append(assumptions,
				fmt.Sprintf("trade %d (%s) skipped: missing code, price, quantity or a recognized action", i, raw.Code))

			continue
		}

		entry := ledger[raw.Code]
		if entry == nil {
			entry = &ledgerEntry{}
			ledger[raw.Code] = entry
		}

		price := decimal.NewFromFloat(raw.Price)
		quantity := decimal.NewFromFloat(raw.Quantity)

		trade := types.Trade{
			Code:     raw.Code,
			Date:     raw.Date,
			Action:   action,
			Price:    raw.Price,
			Quantity: raw.Quantity,
		}

		switch action {
		case types.ActionBuy:
			cost := price.Mul(quantity)
			newQuantity := entry.quantity.Add(quantity)
			entry.avgCost = entry.avgCost.Mul(entry.quantity).Add(cost).Div(newQuantity)
			entry.quantity = newQuantity
			trade.Amount, _ = cost.Float64()
		case types.ActionSell:
			closeQty := quantity
			if closeQty.GreaterThan(entry.quantity) {
				excess := closeQty.Sub(entry.quantity)
				assumptions = append(assumptions,
					fmt.Sprintf("trade %d (%s) oversells position by %s; excess costed at sale price", i, raw.Code, excess.String()))
				closeQty = entry.quantity
			}

			proceeds := price.Mul(quantity)
			costBasis := entry.avgCost.Mul(closeQty)
			profit := price.Sub(entry.avgCost).Mul(closeQty)

			trade.Amount, _ = proceeds.Float64()
			trade.Profit, _ = profit.Float64()

			if !costBasis.IsZero() {
				trade.ProfitPercent, _ = profit.Div(costBasis).Float64()
			}

			entry.quantity = entry.quantity.Sub(closeQty)
			if entry.quantity.IsNegative() {
				entry.quantity = decimal.Zero
			}

			if entry.quantity.IsZero() {
				entry.avgCost = decimal.Zero
			}
		}

		trades = append(trades, trade)
	}

	return trades, assumptions
}

func parseAction(action string) (types.TradeAction, bool) {
	switch action {
	case "buy", "BUY", "Buy":
		return types.ActionBuy, true
	case "sell", "SELL", "Sell":
		return types.ActionSell, true
	default:
		return "", false
	}
}
