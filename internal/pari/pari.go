// Package pari implements the pari-mutuel settlement arithmetic: outcome
// determination, push detection, the basis-point house fee, and the
// proportional payout split.
//
// All pool math runs on big.Int with explicit signed-128-bit range checks.
// Any excursion outside the i128 range fails with ErrOverflow; nothing here
// touches floating point.
package pari

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

const BasisPointsDivisor = 10_000

var ErrOverflow = errors.New("checked arithmetic overflow")

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts exactly the two wire values "up" and "down".
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionUp, DirectionDown:
		return Direction(s), true
	}
	return "", false
}

type Outcome string

const (
	OutcomeUp   Outcome = "up"
	OutcomeDown Outcome = "down"
	OutcomeFlat Outcome = "flat"
)

// Matches reports whether a bet in direction d wins under outcome o.
func (d Direction) Matches(o Outcome) bool {
	return (d == DirectionUp && o == OutcomeUp) || (d == DirectionDown && o == OutcomeDown)
}

var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

func inI128Range(v *big.Int) bool {
	return v.Cmp(minI128) >= 0 && v.Cmp(maxI128) <= 0
}

func checkedAdd(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if !inI128Range(sum) {
		return nil, ErrOverflow
	}
	return sum, nil
}

func checkedMul(a, b *big.Int) (*big.Int, error) {
	prod := new(big.Int).Mul(a, b)
	if !inI128Range(prod) {
		return nil, ErrOverflow
	}
	return prod, nil
}

func toInt(d decimal.Decimal) *big.Int {
	return d.BigInt()
}

func fromInt(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, 0)
}

// AddWager returns total + wager under checked i128 addition.
func AddWager(total, wager decimal.Decimal) (decimal.Decimal, error) {
	sum, err := checkedAdd(toInt(total), toInt(wager))
	if err != nil {
		return decimal.Decimal{}, err
	}
	return fromInt(sum), nil
}

// OutcomeOf compares the two oracle samples.
func OutcomeOf(openPrice, closePrice decimal.Decimal) Outcome {
	switch closePrice.Cmp(openPrice) {
	case 1:
		return OutcomeUp
	case -1:
		return OutcomeDown
	}
	return OutcomeFlat
}

// Settlement is the computed result of closing a round.
type Settlement struct {
	Outcome      Outcome
	IsPush       bool
	TotalPool    decimal.Decimal
	NetPool      decimal.Decimal
	WinningTotal decimal.Decimal
}

// Settle computes the round result from the two price samples and the side
// totals. A push (flat outcome, empty pool, or a one-sided pool) charges no
// fee and makes the whole pool distributable as refunds; otherwise the house
// fee is totalPool * houseEdgeBps / 10000 with the intermediate product
// range-checked before the division.
func Settle(openPrice, closePrice, totalUp, totalDown decimal.Decimal, houseEdgeBps int64) (Settlement, error) {
	up := toInt(totalUp)
	down := toInt(totalDown)

	totalPool, err := checkedAdd(up, down)
	if err != nil {
		return Settlement{}, err
	}

	outcome := OutcomeOf(openPrice, closePrice)

	isPush := outcome == OutcomeFlat ||
		totalPool.Sign() == 0 ||
		up.Sign() == 0 ||
		down.Sign() == 0

	s := Settlement{
		Outcome:      outcome,
		IsPush:       isPush,
		TotalPool:    fromInt(totalPool),
		WinningTotal: decimal.Zero,
	}

	if isPush {
		// No adversarial pool to tax: every bettor gets the exact wager back.
		s.NetPool = s.TotalPool
		return s, nil
	}

	fee, err := checkedMul(totalPool, big.NewInt(houseEdgeBps))
	if err != nil {
		return Settlement{}, err
	}
	fee.Quo(fee, big.NewInt(BasisPointsDivisor))

	net := new(big.Int).Sub(totalPool, fee)
	s.NetPool = fromInt(net)
	if outcome == OutcomeUp {
		s.WinningTotal = fromInt(up)
	} else {
		s.WinningTotal = fromInt(down)
	}
	return s, nil
}

// PayoutShare is netPool * wager / winningTotal with a checked multiply and
// truncating integer division. Rounding dust left across all winners is
// accepted slippage, never a deficit.
func PayoutShare(netPool, wager, winningTotal decimal.Decimal) (decimal.Decimal, error) {
	wt := toInt(winningTotal)
	if wt.Sign() <= 0 {
		return decimal.Decimal{}, ErrOverflow
	}
	prod, err := checkedMul(toInt(netPool), toInt(wager))
	if err != nil {
		return decimal.Decimal{}, err
	}
	return fromInt(prod.Quo(prod, wt)), nil
}
