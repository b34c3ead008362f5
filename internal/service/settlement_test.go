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

func seedPool(repo *stubRepo, id string, closeTime time.Time, up, down decimal.Decimal) {
	repo.rounds[id] = models.Round{
		ID:        id,
		Asset:     "BTC",
		OpenPrice: d(50000),
		CloseTime: closeTime,
		TotalUp:   up,
		TotalDown: down,
	}
}

func newSettlementService(repo *stubRepo, oracle *fakeOracle) *SettlementService {
	return &SettlementService{
		Repo:   repo,
		Oracle: oracle,
		Config: config.EngineConfig{HouseEdgeBps: 500},
		Now:    fixedNow,
	}
}

func TestSettleRound_FeeAndWinningTotal(t *testing.T) {
	repo := newStubRepo()
	seedPool(repo, "r1", testNow.Add(-time.Minute), d(300), d(700))
	svc := newSettlementService(repo, &fakeOracle{price: d(51000)})

	round, err := svc.SettleRound(context.Background(), "r1")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !round.Settled {
		t.Fatalf("round not marked settled")
	}
	if *round.Outcome != "up" || round.IsPush {
		t.Fatalf("outcome=%s push=%v", *round.Outcome, round.IsPush)
	}
	// 1000 pool at 500 bps: fee 50, net 950.
	if !round.NetPool.Equal(d(950)) {
		t.Fatalf("net pool=%s want 950", round.NetPool)
	}
	if !round.WinningTotal.Equal(d(300)) {
		t.Fatalf("winning total=%s want 300", round.WinningTotal)
	}
	if !round.ClosePrice.Equal(d(51000)) {
		t.Fatalf("close price=%s", round.ClosePrice)
	}
}

func TestSettleRound_AtCloseTimeSucceeds(t *testing.T) {
	repo := newStubRepo()
	seedPool(repo, "r1", testNow, d(100), d(100))
	svc := newSettlementService(repo, &fakeOracle{price: d(49000)})

	round, err := svc.SettleRound(context.Background(), "r1")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if *round.Outcome != "down" {
		t.Fatalf("outcome=%s want down", *round.Outcome)
	}
}

func TestSettleRound_BeforeClose(t *testing.T) {
	repo := newStubRepo()
	seedPool(repo, "r1", testNow.Add(time.Minute), d(100), d(100))
	svc := newSettlementService(repo, &fakeOracle{price: d(51000)})

	_, err := svc.SettleRound(context.Background(), "r1")
	if !errors.Is(err, ErrSettleBeforeClose) {
		t.Fatalf("err=%v want ErrSettleBeforeClose", err)
	}
}

func TestSettleRound_AlreadySettled(t *testing.T) {
	repo := newStubRepo()
	seedPool(repo, "r1", testNow.Add(-time.Minute), d(100), d(100))
	oracle := &fakeOracle{price: d(51000)}
	svc := newSettlementService(repo, oracle)

	if _, err := svc.SettleRound(context.Background(), "r1"); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	_, err := svc.SettleRound(context.Background(), "r1")
	if !errors.Is(err, ErrRoundAlreadySettled) {
		t.Fatalf("err=%v want ErrRoundAlreadySettled", err)
	}
	if oracle.calls != 1 {
		t.Fatalf("oracle calls=%d want 1", oracle.calls)
	}
}

func TestSettleRound_NotFound(t *testing.T) {
	svc := newSettlementService(newStubRepo(), &fakeOracle{price: d(51000)})
	_, err := svc.SettleRound(context.Background(), "missing")
	if !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("err=%v want ErrRoundNotFound", err)
	}
}

func TestSettleRound_PushVariants(t *testing.T) {
	cases := []struct {
		name       string
		closePrice decimal.Decimal
		up, down   decimal.Decimal
	}{
		{name: "flat outcome", closePrice: d(50000), up: d(300), down: d(700)},
		{name: "empty pool", closePrice: d(51000), up: d(0), down: d(0)},
		{name: "one sided up", closePrice: d(51000), up: d(500), down: d(0)},
		{name: "one sided down", closePrice: d(49000), up: d(0), down: d(500)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubRepo()
			seedPool(repo, "r1", testNow.Add(-time.Minute), tc.up, tc.down)
			svc := newSettlementService(repo, &fakeOracle{price: tc.closePrice})

			round, err := svc.SettleRound(context.Background(), "r1")
			if err != nil {
				t.Fatalf("err=%v", err)
			}
			if !round.IsPush {
				t.Fatalf("expected push")
			}
			// No fee on a push: the whole pool is refundable.
			wantPool := tc.up.Add(tc.down)
			if !round.NetPool.Equal(wantPool) {
				t.Fatalf("net pool=%s want %s", round.NetPool, wantPool)
			}
			if !round.WinningTotal.IsZero() {
				t.Fatalf("winning total=%s want 0", round.WinningTotal)
			}
		})
	}
}

func TestSettleRound_InvalidOraclePrice(t *testing.T) {
	repo := newStubRepo()
	seedPool(repo, "r1", testNow.Add(-time.Minute), d(100), d(100))
	svc := newSettlementService(repo, &fakeOracle{price: d(-1)})

	_, err := svc.SettleRound(context.Background(), "r1")
	if !errors.Is(err, ErrOraclePriceInvalid) {
		t.Fatalf("err=%v want ErrOraclePriceInvalid", err)
	}
	round, _ := repo.GetRound(context.Background(), "r1")
	if round.Settled {
		t.Fatalf("round settled despite invalid price")
	}
}

func TestSettlementSweeper_SettlesDueRounds(t *testing.T) {
	repo := newStubRepo()
	seedPool(repo, "due-1", testNow.Add(-2*time.Minute), d(100), d(200))
	seedPool(repo, "due-2", testNow.Add(-time.Minute), d(50), d(50))
	seedPool(repo, "open", testNow.Add(time.Hour), d(10), d(10))

	svc := newSettlementService(repo, &fakeOracle{price: d(51000)})
	sweeper := &SettlementSweeper{Repo: repo, Settler: svc, Now: fixedNow}

	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	for _, id := range []string{"due-1", "due-2"} {
		round, _ := repo.GetRound(context.Background(), id)
		if !round.Settled {
			t.Fatalf("round %s not settled", id)
		}
	}
	open, _ := repo.GetRound(context.Background(), "open")
	if open.Settled {
		t.Fatalf("future round settled")
	}

	// A second sweep sees nothing due and changes nothing.
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
}
