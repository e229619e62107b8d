package consolidation

import (
	"github.com/shopspring/decimal"

	"trade-ledger/internal/domain"
)

// AverageFillPrice returns the quantity-weighted mean price across fills
// using exact decimal division. Returns zero for an empty fill list.
func AverageFillPrice(fills []domain.Fill) decimal.Decimal {
	notional := decimal.Zero
	quantity := decimal.Zero
	for _, f := range fills {
		notional = notional.Add(f.Price.Mul(f.Quantity))
		quantity = quantity.Add(f.Quantity)
	}
	if quantity.IsZero() {
		return decimal.Zero
	}
	return notional.Div(quantity)
}

// ComputeRealizedPnL computes the signed realized profit/loss for a trade
// from its entry and exit fills. Pure: the same fills always yield the
// identical decimal value.
//
// gross = (avg_exit - avg_entry) * exit_qty for longs, negated for shorts.
// Option instruments scale gross by the contract multiplier and deduct the
// per-contract commission across all fills (entries + exits). Intermediate
// values stay unrounded; only the final figure is rounded to cents,
// half-even.
func ComputeRealizedPnL(entries, exits []domain.Fill, direction domain.Direction, inst *domain.Instrument) decimal.Decimal {
	avgEntry := AverageFillPrice(entries)
	avgExit := AverageFillPrice(exits)
	exitQty := sumQuantity(exits)

	var gross decimal.Decimal
	if direction == domain.DirectionLong {
		gross = avgExit.Sub(avgEntry).Mul(exitQty)
	} else {
		gross = avgEntry.Sub(avgExit).Mul(exitQty)
	}

	if inst != nil && inst.Kind == domain.KindOption {
		gross = gross.Mul(inst.Multiplier)
		contracts := sumQuantity(entries).Add(exitQty)
		gross = gross.Sub(inst.CommissionPerContract.Mul(contracts))
	}

	return gross.RoundBank(2)
}

func sumQuantity(fills []domain.Fill) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fills {
		total = total.Add(f.Quantity)
	}
	return total
}
