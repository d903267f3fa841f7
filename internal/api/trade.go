package api

import (
	"errors"
	"net/http"
	"time"

	"stocksim/internal/engine"
	"stocksim/internal/ledger"
	"stocksim/internal/market"
	"stocksim/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// OrderRequest is the buy/sell payload. Shares arrives as a raw string so the
// engine owns the not-a-number validation, matching the form-style input.
type OrderRequest struct {
	Symbol string `json:"symbol"`
	Shares string `json:"shares"`
}

// orderError maps an engine error to a status code and user message.
// Validation problems are 400, business-rule rejections 422.
func orderError(c *gin.Context, err error) {
	var insufficient *engine.InsufficientFundsError
	var noHoldings *engine.NoHoldingsError
	var overSell *engine.OverSellError
	switch {
	case errors.As(err, &insufficient), errors.As(err, &noHoldings), errors.As(err, &overSell):
		apology(c, http.StatusUnprocessableEntity, err.Error())
	default:
		apology(c, http.StatusBadRequest, err.Error())
	}
}

// BuyHandler executes a purchase: parse the order, quote the symbol, then
// validate and commit under the user's lock so the read-compute-write
// sequence cannot interleave with another request for the same user.
func BuyHandler(store *ledger.Store, oracle market.Oracle, rdb *redis.Client, quoteTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			apology(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var req OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apology(c, http.StatusBadRequest, "Invalid request")
			return
		}
		symbol, shares, err := engine.ParseOrder(req.Symbol, req.Shares)
		if err != nil {
			orderError(c, err)
			return
		}
		quote, err := quoteForSymbol(c.Request.Context(), oracle, store, rdb, symbol, quoteTTL)
		if err != nil {
			apology(c, http.StatusNotFound, "Stock not found")
			return
		}
		unlock := store.LockUser(userID) // Serialize balance access per user
		defer unlock()
		balance, err := store.Balance(userID)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to read balance")
			return
		}
		newBalance, rec, err := engine.Buy(userID, balance, quote, shares)
		if err != nil {
			orderError(c, err)
			return
		}
		if err := store.CommitTrade(userID, newBalance, rec); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"symbol":  symbol,
				"shares":  shares,
				"error":   err.Error(),
			}).Error("Buy failed")
			apology(c, http.StatusInternalServerError, "Buy failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,
			"symbol":    symbol,
			"shares":    shares,
			"price":     quote.Price,
			"type":      "buy",
			"timestamp": time.Now().Format(time.RFC3339),
		}).Info("Buy transaction")
		invalidateUserCaches(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{
			"message":     "Buy successful",
			"transaction": rec,
			"balance":     newBalance,
		})
	}
}

// SellHandler executes a sale against the user's recomputed holding. The
// oversell rejection carries the owned count in the message.
func SellHandler(store *ledger.Store, oracle market.Oracle, rdb *redis.Client, quoteTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			apology(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var req OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apology(c, http.StatusBadRequest, "Invalid request")
			return
		}
		symbol, shares, err := engine.ParseOrder(req.Symbol, req.Shares)
		if err != nil {
			orderError(c, err)
			return
		}
		quote, err := quoteForSymbol(c.Request.Context(), oracle, store, rdb, symbol, quoteTTL)
		if err != nil {
			apology(c, http.StatusNotFound, "Stock not found")
			return
		}
		unlock := store.LockUser(userID) // Serialize balance access per user
		defer unlock()
		balance, err := store.Balance(userID)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to read balance")
			return
		}
		holding, err := store.Holding(userID, symbol)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to read holdings")
			return
		}
		newBalance, rec, err := engine.Sell(userID, balance, holding, quote, shares)
		if err != nil {
			orderError(c, err)
			return
		}
		if err := store.CommitTrade(userID, newBalance, rec); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"symbol":  symbol,
				"shares":  shares,
				"error":   err.Error(),
			}).Error("Sell failed")
			apology(c, http.StatusInternalServerError, "Sell failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,
			"symbol":    symbol,
			"shares":    shares,
			"price":     quote.Price,
			"type":      "sell",
			"timestamp": time.Now().Format(time.RFC3339),
		}).Info("Sell transaction")
		invalidateUserCaches(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{
			"message":     "Sell successful",
			"transaction": rec,
			"balance":     newBalance,
		})
	}
}

// QuoteHandler returns the current quote for a symbol, cache-first.
func QuoteHandler(store *ledger.Store, oracle market.Oracle, rdb *redis.Client, quoteTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol, err := engine.ParseSymbol(c.Param("symbol"))
		if err != nil {
			apology(c, http.StatusBadRequest, err.Error())
			return
		}
		quote, err := quoteForSymbol(c.Request.Context(), oracle, store, rdb, symbol, quoteTTL)
		if err != nil {
			apology(c, http.StatusNotFound, "Stock not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"symbol":        quote.Symbol,
			"name":          quote.Name,
			"price":         quote.Price,
			"price_display": utils.USD(quote.Price),
		})
	}
}
