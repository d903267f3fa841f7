package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim/internal/market"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name       string
		symbol     string
		shares     string
		wantSymbol string
		wantShares int64
		wantErr    error
	}{
		{name: "valid", symbol: "aapl", shares: "10", wantSymbol: "AAPL", wantShares: 10},
		{name: "trims whitespace", symbol: " nflx ", shares: " 3 ", wantSymbol: "NFLX", wantShares: 3},
		{name: "missing symbol", symbol: "", shares: "10", wantErr: ErrMissingSymbol},
		{name: "blank symbol", symbol: "   ", shares: "10", wantErr: ErrMissingSymbol},
		{name: "missing shares", symbol: "AAPL", shares: "", wantErr: ErrMissingShares},
		{name: "not a number", symbol: "AAPL", shares: "ten", wantErr: ErrInvalidShares},
		{name: "fractional shares", symbol: "AAPL", shares: "1.5", wantErr: ErrInvalidShares},
		{name: "zero shares", symbol: "AAPL", shares: "0", wantErr: ErrNonPositiveShares},
		{name: "negative shares", symbol: "AAPL", shares: "-4", wantErr: ErrNonPositiveShares},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, shares, err := ParseOrder(tt.symbol, tt.shares)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSymbol, symbol)
			assert.Equal(t, tt.wantShares, shares)
		})
	}
}

func TestBuy(t *testing.T) {
	quote := market.Quote{Symbol: "SYM", Name: "Symbol Inc", Price: 50.00}

	t.Run("affordable buy reduces balance by cost", func(t *testing.T) {
		newBalance, rec, err := Buy(1, 1000.00, quote, 10)
		require.NoError(t, err)
		assert.Equal(t, 500.00, newBalance)
		assert.Equal(t, uint(1), rec.UserID)
		assert.Equal(t, "SYM", rec.Symbol)
		assert.Equal(t, "Symbol Inc", rec.Name)
		assert.Equal(t, int64(10), rec.Shares) // positive delta for a buy
		assert.Equal(t, 50.00, rec.Price)
		assert.NotEmpty(t, rec.Reference)
	})

	t.Run("exact balance is allowed", func(t *testing.T) {
		newBalance, _, err := Buy(1, 500.00, quote, 10)
		require.NoError(t, err)
		assert.Equal(t, 0.00, newBalance)
	})

	t.Run("insufficient funds rejected", func(t *testing.T) {
		_, _, err := Buy(1, 499.99, quote, 10)
		var insufficient *InsufficientFundsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 500.00, insufficient.Cost)
		assert.Equal(t, 499.99, insufficient.Balance)
	})

	t.Run("no float drift on cent prices", func(t *testing.T) {
		newBalance, _, err := Buy(1, 10.00, market.Quote{Symbol: "X", Price: 0.10}, 3)
		require.NoError(t, err)
		assert.Equal(t, 9.70, newBalance)
	})
}

func TestSell(t *testing.T) {
	quote := market.Quote{Symbol: "SYM", Name: "Symbol Inc", Price: 50.00}

	t.Run("sell within holding credits proceeds", func(t *testing.T) {
		newBalance, rec, err := Sell(1, 100.00, 10, quote, 4)
		require.NoError(t, err)
		assert.Equal(t, 300.00, newBalance)
		assert.Equal(t, int64(-4), rec.Shares) // negated delta for a sell
		assert.Equal(t, 50.00, rec.Price)
	})

	t.Run("selling entire holding", func(t *testing.T) {
		newBalance, rec, err := Sell(1, 0, 5, quote, 5)
		require.NoError(t, err)
		assert.Equal(t, 250.00, newBalance)
		assert.Equal(t, int64(-5), rec.Shares)
	})

	t.Run("no holdings rejected", func(t *testing.T) {
		_, _, err := Sell(1, 100.00, 0, quote, 1)
		var noHoldings *NoHoldingsError
		require.ErrorAs(t, err, &noHoldings)
		assert.Equal(t, "SYM", noHoldings.Symbol)
	})

	t.Run("oversell rejected with owned count in message", func(t *testing.T) {
		_, _, err := Sell(1, 100.00, 5, quote, 7)
		var overSell *OverSellError
		require.ErrorAs(t, err, &overSell)
		assert.Equal(t, int64(5), overSell.Owned)
		assert.Contains(t, err.Error(), "5")
		assert.Contains(t, err.Error(), "SYM")
	})
}

func TestEngineErrorsAreDistinct(t *testing.T) {
	// The handler layer maps each class to a different response; make sure
	// the types do not alias each other.
	_, _, buyErr := Buy(1, 0, market.Quote{Symbol: "A", Price: 1}, 1)
	_, _, sellErr := Sell(1, 0, 0, market.Quote{Symbol: "A", Price: 1}, 1)
	var insufficient *InsufficientFundsError
	assert.True(t, errors.As(buyErr, &insufficient))
	assert.False(t, errors.As(sellErr, &insufficient))
}
