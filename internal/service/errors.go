package service

import (
	"errors"

	"prediction/internal/pari"
)

// Typed failure kinds for every engine operation. Each failure aborts its
// whole operation with no partial state change; retry is the caller's
// decision.
var (
	ErrDuplicateRound      = errors.New("round already exists")
	ErrInvalidCloseTime    = errors.New("close time must be strictly in the future")
	ErrOraclePriceInvalid  = errors.New("oracle price is not positive")
	ErrRoundNotFound       = errors.New("round not found")
	ErrDirectionInvalid    = errors.New("direction must be up or down")
	ErrWagerOutOfBounds    = errors.New("wager outside configured bounds")
	ErrRoundClosed         = errors.New("round is closed for betting")
	ErrDuplicateBet        = errors.New("player already has a bet in this round")
	ErrRoundAlreadySettled = errors.New("round already settled")
	ErrSettleBeforeClose   = errors.New("round has not reached close time")
	ErrRoundNotSettled     = errors.New("round not settled")
	ErrBetNotFound         = errors.New("bet not found")
	ErrAlreadyClaimed      = errors.New("bet already claimed")
	ErrNoPayout            = errors.New("no payout for this bet")
	ErrOverflow            = pari.ErrOverflow
)

// ErrorKind labels an error for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateRound):
		return "duplicate_round"
	case errors.Is(err, ErrInvalidCloseTime):
		return "invalid_close_time"
	case errors.Is(err, ErrOraclePriceInvalid):
		return "oracle_price_invalid"
	case errors.Is(err, ErrRoundNotFound):
		return "round_not_found"
	case errors.Is(err, ErrDirectionInvalid):
		return "direction_invalid"
	case errors.Is(err, ErrWagerOutOfBounds):
		return "wager_out_of_bounds"
	case errors.Is(err, ErrRoundClosed):
		return "round_closed"
	case errors.Is(err, ErrDuplicateBet):
		return "duplicate_bet"
	case errors.Is(err, ErrRoundAlreadySettled):
		return "round_already_settled"
	case errors.Is(err, ErrSettleBeforeClose):
		return "settle_before_close"
	case errors.Is(err, ErrRoundNotSettled):
		return "round_not_settled"
	case errors.Is(err, ErrBetNotFound):
		return "bet_not_found"
	case errors.Is(err, ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, ErrNoPayout):
		return "no_payout"
	case errors.Is(err, ErrOverflow):
		return "overflow"
	}
	return "internal"
}
