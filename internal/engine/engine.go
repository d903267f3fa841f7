// Package engine holds the pure trade logic: order validation and the
// buy/sell arithmetic. Nothing in here touches storage, the network, or the
// clock, so every rule is unit-testable with plain values.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stocksim/internal/domain"
	"stocksim/internal/market"
)

// Validation errors for incoming orders.
var (
	ErrMissingSymbol     = errors.New("must provide a stock symbol")
	ErrMissingShares     = errors.New("must provide an amount of shares")
	ErrInvalidShares     = errors.New("must provide a whole number of shares")
	ErrNonPositiveShares = errors.New("number of shares must be positive")
)

// InsufficientFundsError is returned when a buy costs more than the user has.
type InsufficientFundsError struct {
	Cost    float64
	Balance float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("not enough cash: need %.2f, have %.2f", e.Cost, e.Balance)
}

// NoHoldingsError is returned when selling a symbol the user does not own at all.
type NoHoldingsError struct {
	Symbol string
}

func (e *NoHoldingsError) Error() string {
	return fmt.Sprintf("you do not own any shares of %s", e.Symbol)
}

// OverSellError is returned when selling more shares than the user owns.
// The message carries the owned count so the user can correct the order.
type OverSellError struct {
	Symbol string
	Owned  int64
}

func (e *OverSellError) Error() string {
	return fmt.Sprintf("you are trying to sell more shares of %s than you own (%d)", e.Symbol, e.Owned)
}

// ParseSymbol normalizes a ticker symbol: trimmed, upper-cased, non-empty.
func ParseSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", ErrMissingSymbol
	}
	return symbol, nil
}

// ParseOrder validates the raw symbol and share-count inputs of a buy or sell.
// The share count must parse as a positive integer; the symbol is upper-cased.
func ParseOrder(symbol, sharesRaw string) (string, int64, error) {
	symbol, err := ParseSymbol(symbol)
	if err != nil {
		return "", 0, err
	}
	sharesRaw = strings.TrimSpace(sharesRaw)
	if sharesRaw == "" {
		return "", 0, ErrMissingShares
	}
	shares, err := strconv.ParseInt(sharesRaw, 10, 64)
	if err != nil {
		return "", 0, ErrInvalidShares
	}
	if shares < 1 {
		return "", 0, ErrNonPositiveShares
	}
	return symbol, shares, nil
}

// Buy computes the result of purchasing shares at the quoted price. It fails
// with InsufficientFundsError when the cost exceeds the balance; on success it
// returns the reduced balance and the ledger row to append (positive shares).
// No state is touched either way.
func Buy(userID uint, balance float64, q market.Quote, shares int64) (float64, domain.Transaction, error) {
	cost := decimal.NewFromFloat(q.Price).Mul(decimal.NewFromInt(shares))
	bal := decimal.NewFromFloat(balance)
	if cost.GreaterThan(bal) {
		return 0, domain.Transaction{}, &InsufficientFundsError{
			Cost:    cost.InexactFloat64(),
			Balance: balance,
		}
	}
	newBalance := bal.Sub(cost).Round(2).InexactFloat64()
	rec := domain.Transaction{
		Reference: uuid.NewString(),
		UserID:    userID,
		Symbol:    q.Symbol,
		Name:      q.Name,
		Shares:    shares,
		Price:     q.Price,
	}
	return newBalance, rec, nil
}

// Sell computes the result of selling shares at the quoted price against the
// user's current aggregate holding. It fails with NoHoldingsError when the
// user owns nothing of the symbol and with OverSellError when the order
// exceeds the holding; on success it returns the increased balance and a
// ledger row with the share delta negated.
func Sell(userID uint, balance float64, holding int64, q market.Quote, shares int64) (float64, domain.Transaction, error) {
	if holding <= 0 {
		return 0, domain.Transaction{}, &NoHoldingsError{Symbol: q.Symbol}
	}
	if shares > holding {
		return 0, domain.Transaction{}, &OverSellError{Symbol: q.Symbol, Owned: holding}
	}
	proceeds := decimal.NewFromFloat(q.Price).Mul(decimal.NewFromInt(shares))
	newBalance := decimal.NewFromFloat(balance).Add(proceeds).Round(2).InexactFloat64()
	rec := domain.Transaction{
		Reference: uuid.NewString(),
		UserID:    userID,
		Symbol:    q.Symbol,
		Name:      q.Name,
		Shares:    -shares,
		Price:     q.Price,
	}
	return newBalance, rec, nil
}
