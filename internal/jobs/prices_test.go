package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stocksim/internal/domain"
	"stocksim/internal/ledger"
	"stocksim/internal/market"
)

type stubOracle struct {
	quotes map[string]market.Quote
	calls  int
}

func (s *stubOracle) Lookup(_ context.Context, symbol string) (market.Quote, error) {
	s.calls++
	q, ok := s.quotes[symbol]
	if !ok {
		return market.Quote{}, market.ErrQuoteNotFound
	}
	return q, nil
}

func (s *stubOracle) History(context.Context, string) ([]market.DailyPrice, error) {
	return nil, market.ErrQuoteNotFound
}

func TestSnapshotHeldPrices(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Transaction{}, &domain.StockPrice{}))
	store := ledger.NewStore(db, 10000)

	userID, err := store.CreateUser("alice", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, store.CommitTrade(userID, 9500, domain.Transaction{
		UserID: userID, Symbol: "SYM", Name: "Symbol Inc", Shares: 10, Price: 50,
	}))

	oracle := &stubOracle{quotes: map[string]market.Quote{
		"SYM": {Symbol: "SYM", Name: "Symbol Inc", Price: 51.50},
	}}
	snapshotHeldPrices(store, oracle)

	prices, err := store.Prices("SYM", 10)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, 51.50, prices[0].Price)
	assert.Equal(t, 1, oracle.calls)
}

func TestSnapshotSkipsUnquotableSymbols(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Transaction{}, &domain.StockPrice{}))
	store := ledger.NewStore(db, 10000)

	userID, err := store.CreateUser("bob", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, store.CommitTrade(userID, 9500, domain.Transaction{
		UserID: userID, Symbol: "GONE", Shares: 10, Price: 50,
	}))

	oracle := &stubOracle{quotes: map[string]market.Quote{}}
	snapshotHeldPrices(store, oracle) // must not panic or write anything

	prices, err := store.Prices("GONE", 10)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestStartPriceSnapshotsDisabled(t *testing.T) {
	assert.Nil(t, StartPriceSnapshots("", nil, nil))
}
