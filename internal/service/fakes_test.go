package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"prediction/internal/notify"
)

type fakeOracle struct {
	price decimal.Decimal
	err   error
	calls int
}

func (f *fakeOracle) GetPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Decimal{}, f.err
	}
	return f.price, nil
}

type transferCall struct {
	from, to string
	amount   decimal.Decimal
}

type fakeEscrow struct {
	err     error
	calls   []transferCall
	journal *[]string
}

func (f *fakeEscrow) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if f.journal != nil {
		*f.journal = append(*f.journal, "transfer")
	}
	f.calls = append(f.calls, transferCall{from: from, to: to, amount: amount})
	return f.err
}

type recordingNotifier struct {
	opened  []notify.MarketOpened
	placed  []notify.PredictionPlaced
	settled []notify.RoundSettled
	claimed []notify.ClaimPaid
}

func (n *recordingNotifier) MarketOpened(ctx context.Context, e notify.MarketOpened) error {
	n.opened = append(n.opened, e)
	return nil
}

func (n *recordingNotifier) PredictionPlaced(ctx context.Context, e notify.PredictionPlaced) error {
	n.placed = append(n.placed, e)
	return nil
}

func (n *recordingNotifier) RoundSettled(ctx context.Context, e notify.RoundSettled) error {
	n.settled = append(n.settled, e)
	return nil
}

func (n *recordingNotifier) ClaimPaid(ctx context.Context, e notify.ClaimPaid) error {
	n.claimed = append(n.claimed, e)
	return nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
