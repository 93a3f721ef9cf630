package portfolio

import "github.com/shopspring/decimal"

// lot is an open (whole or partial) purchase awaiting consumption by a sell.
type lot struct {
	quantity decimal.Decimal // remaining shares, always > 0 while queued
	unitCost decimal.Decimal // purchase price per share
}

// lotQueue holds the open lots for one symbol in purchase order. Earlier
// buys are always consumed before later ones (FIFO).
type lotQueue struct {
	lots []lot
}

func (q *lotQueue) push(quantity, unitCost decimal.Decimal) {
	q.lots = append(q.lots, lot{quantity: quantity, unitCost: unitCost})
}

// available returns the total remaining quantity across all open lots.
func (q *lotQueue) available() decimal.Decimal {
	total := decimal.Zero
	for _, l := range q.lots {
		total = total.Add(l.quantity)
	}
	return total
}

func (q *lotQueue) empty() bool { return len(q.lots) == 0 }

// consume matches quantity against the queue head-first and returns the
// realized profit at the given sell price. The caller must have checked that
// enough quantity is available; consume panics on a drained queue otherwise.
func (q *lotQueue) consume(quantity, sellPrice decimal.Decimal) decimal.Decimal {
	profit := decimal.Zero
	remaining := quantity
	for remaining.IsPositive() {
		head := &q.lots[0]
		used := decimal.Min(remaining, head.quantity)
		profit = profit.Add(used.Mul(sellPrice.Sub(head.unitCost)))
		head.quantity = head.quantity.Sub(used)
		remaining = remaining.Sub(used)
		if head.quantity.IsZero() {
			q.lots = q.lots[1:]
		}
	}
	return profit
}
