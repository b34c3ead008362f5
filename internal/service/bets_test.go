package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"prediction/internal/config"
	"prediction/internal/models"
)

func seedRound(repo *stubRepo, id string, closeTime time.Time) {
	repo.rounds[id] = models.Round{
		ID:        id,
		Asset:     "BTC",
		OpenPrice: d(50000),
		CloseTime: closeTime,
		TotalUp:   decimal.Zero,
		TotalDown: decimal.Zero,
	}
}

func newBetService(repo *stubRepo, escrow *fakeEscrow) *BetService {
	return &BetService{
		Repo:         repo,
		Escrow:       escrow,
		Config:       config.EngineConfig{MinWager: 10, MaxWager: 10000},
		HouseAccount: "house",
		Now:          fixedNow,
	}
}

func TestPlacePrediction_Success(t *testing.T) {
	repo := newStubRepo()
	seedRound(repo, "r1", testNow.Add(time.Hour))
	escrow := &fakeEscrow{}
	svc := newBetService(repo, escrow)

	bet, err := svc.PlacePrediction(context.Background(), "alice", "r1", "up", d(100))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if bet.Direction != "up" || !bet.Wager.Equal(d(100)) {
		t.Fatalf("bet=%+v", bet)
	}
	round, _ := repo.GetRound(context.Background(), "r1")
	if !round.TotalUp.Equal(d(100)) || !round.TotalDown.IsZero() {
		t.Fatalf("totals up=%s down=%s", round.TotalUp, round.TotalDown)
	}
	if len(escrow.calls) != 1 {
		t.Fatalf("escrow calls=%d want 1", len(escrow.calls))
	}
	call := escrow.calls[0]
	if call.from != "alice" || call.to != "house" || !call.amount.Equal(d(100)) {
		t.Fatalf("transfer=%+v", call)
	}
}

func TestPlacePrediction_BothSidesAccumulate(t *testing.T) {
	repo := newStubRepo()
	seedRound(repo, "r1", testNow.Add(time.Hour))
	svc := newBetService(repo, &fakeEscrow{})

	if _, err := svc.PlacePrediction(context.Background(), "alice", "r1", "up", d(300)); err != nil {
		t.Fatalf("alice: %v", err)
	}
	if _, err := svc.PlacePrediction(context.Background(), "bob", "r1", "down", d(700)); err != nil {
		t.Fatalf("bob: %v", err)
	}
	round, _ := repo.GetRound(context.Background(), "r1")
	if !round.TotalUp.Equal(d(300)) || !round.TotalDown.Equal(d(700)) {
		t.Fatalf("totals up=%s down=%s", round.TotalUp, round.TotalDown)
	}
}

func TestPlacePrediction_InvalidDirection(t *testing.T) {
	repo := newStubRepo()
	seedRound(repo, "r1", testNow.Add(time.Hour))
	svc := newBetService(repo, &fakeEscrow{})

	for _, dir := range []string{"sideways", "UP", ""} {
		_, err := svc.PlacePrediction(context.Background(), "alice", "r1", dir, d(100))
		if !errors.Is(err, ErrDirectionInvalid) {
			t.Fatalf("dir=%q err=%v want ErrDirectionInvalid", dir, err)
		}
	}
}

func TestPlacePrediction_WagerBounds(t *testing.T) {
	repo := newStubRepo()
	seedRound(repo, "r1", testNow.Add(time.Hour))
	svc := newBetService(repo, &fakeEscrow{})

	bad := []decimal.Decimal{
		d(0),
		d(-5),
		d(9),
		d(10001),
		decimal.NewFromFloat(100.5),
	}
	for _, wager := range bad {
		_, err := svc.PlacePrediction(context.Background(), "alice", "r1", "up", wager)
		if !errors.Is(err, ErrWagerOutOfBounds) {
			t.Fatalf("wager=%s err=%v want ErrWagerOutOfBounds", wager, err)
		}
	}
}

func TestPlacePrediction_RoundNotFound(t *testing.T) {
	svc := newBetService(newStubRepo(), &fakeEscrow{})
	_, err := svc.PlacePrediction(context.Background(), "alice", "missing", "up", d(100))
	if !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("err=%v want ErrRoundNotFound", err)
	}
}

func TestPlacePrediction_RoundClosed(t *testing.T) {
	repo := newStubRepo()
	// Betting at exactly close_time is already too late.
	seedRound(repo, "at-close", testNow)
	seedRound(repo, "past-close", testNow.Add(-time.Minute))
	seedRound(repo, "settled", testNow.Add(time.Hour))
	settled := repo.rounds["settled"]
	settled.Settled = true
	repo.rounds["settled"] = settled

	svc := newBetService(repo, &fakeEscrow{})
	for _, id := range []string{"at-close", "past-close", "settled"} {
		_, err := svc.PlacePrediction(context.Background(), "alice", id, "up", d(100))
		if !errors.Is(err, ErrRoundClosed) {
			t.Fatalf("round=%s err=%v want ErrRoundClosed", id, err)
		}
	}
}

func TestPlacePrediction_DuplicateBet(t *testing.T) {
	repo := newStubRepo()
	seedRound(repo, "r1", testNow.Add(time.Hour))
	svc := newBetService(repo, &fakeEscrow{})

	if _, err := svc.PlacePrediction(context.Background(), "alice", "r1", "up", d(100)); err != nil {
		t.Fatalf("first bet: %v", err)
	}
	_, err := svc.PlacePrediction(context.Background(), "alice", "r1", "down", d(200))
	if !errors.Is(err, ErrDuplicateBet) {
		t.Fatalf("err=%v want ErrDuplicateBet", err)
	}
	round, _ := repo.GetRound(context.Background(), "r1")
	if !round.TotalUp.Equal(d(100)) || !round.TotalDown.IsZero() {
		t.Fatalf("totals changed by rejected bet: up=%s down=%s", round.TotalUp, round.TotalDown)
	}
}

func TestPlacePrediction_EscrowFailureRollsBack(t *testing.T) {
	repo := newStubRepo()
	seedRound(repo, "r1", testNow.Add(time.Hour))
	svc := newBetService(repo, &fakeEscrow{err: errors.New("insufficient funds")})

	_, err := svc.PlacePrediction(context.Background(), "alice", "r1", "up", d(100))
	if err == nil {
		t.Fatalf("expected error")
	}
	round, _ := repo.GetRound(context.Background(), "r1")
	if !round.TotalUp.IsZero() {
		t.Fatalf("totals survived rollback: up=%s", round.TotalUp)
	}
	if bet, _ := repo.GetBet(context.Background(), "r1", "alice"); bet != nil {
		t.Fatalf("bet survived rollback: %+v", bet)
	}
}

func TestPlacePrediction_WritesBeforeTransfer(t *testing.T) {
	repo := newStubRepo()
	seedRound(repo, "r1", testNow.Add(time.Hour))
	escrow := &fakeEscrow{journal: repo.journal}
	svc := newBetService(repo, escrow)

	if _, err := svc.PlacePrediction(context.Background(), "alice", "r1", "up", d(100)); err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []string{"update_round", "create_bet", "transfer"}
	got := *repo.journal
	if len(got) != len(want) {
		t.Fatalf("journal=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("journal=%v want %v", got, want)
		}
	}
}
