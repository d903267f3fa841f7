package api

import (
	"net/http"
	"strconv"
	"time"

	"stocksim/internal/domain"
	"stocksim/internal/engine"
	"stocksim/internal/ledger"
	"stocksim/internal/market"
	"stocksim/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Position is one portfolio row: the derived holding plus its live valuation.
type Position struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Shares       int64   `json:"shares"`
	Price        float64 `json:"price"`
	Total        float64 `json:"total"`
	PriceDisplay string  `json:"price_display"`
	TotalDisplay string  `json:"total_display"`
}

// PortfolioResponse is the full portfolio view.
type PortfolioResponse struct {
	Positions    []Position `json:"positions"`
	Cash         float64    `json:"cash"`
	Total        float64    `json:"total"`
	CashDisplay  string     `json:"cash_display"`
	TotalDisplay string     `json:"total_display"`
}

// PortfolioHandler rebuilds the user's positions from the ledger, prices each
// one through the oracle and returns per-position and grand totals. The whole
// response is cached briefly; mutations invalidate it.
func PortfolioHandler(store *ledger.Store, oracle market.Oracle, rdb *redis.Client, quoteTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			apology(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := c.Request.Context()
		cacheKey := "portfolio:user:" + strconv.Itoa(int(userID))
		var cached PortfolioResponse
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"portfolio": cached, "cached": true})
			return
		}
		cash, err := store.Balance(userID)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to read balance")
			return
		}
		holdings, err := store.Holdings(userID)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to read holdings")
			return
		}
		total := decimal.NewFromFloat(cash)
		positions := make([]Position, 0, len(holdings))
		for _, h := range holdings {
			pos := Position{Symbol: h.Symbol, Name: h.Name, Shares: h.Shares}
			// A quote miss leaves the position unpriced rather than failing
			// the whole page.
			if q, err := quoteForSymbol(ctx, oracle, store, rdb, h.Symbol, quoteTTL); err == nil {
				value := decimal.NewFromFloat(q.Price).Mul(decimal.NewFromInt(h.Shares)).Round(2)
				pos.Name = q.Name
				pos.Price = q.Price
				pos.Total = value.InexactFloat64()
				pos.PriceDisplay = utils.USD(q.Price)
				pos.TotalDisplay = utils.USD(pos.Total)
				total = total.Add(value)
			} else {
				logrus.WithField("symbol", h.Symbol).Warn("Portfolio quote unavailable")
			}
			positions = append(positions, pos)
		}
		resp := PortfolioResponse{
			Positions:    positions,
			Cash:         cash,
			Total:        total.Round(2).InexactFloat64(),
			CashDisplay:  utils.USD(cash),
			TotalDisplay: utils.USD(total.Round(2).InexactFloat64()),
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 30*time.Second)
		c.JSON(http.StatusOK, gin.H{"portfolio": resp, "cached": false})
	}
}

// AddFundsRequest is the top-up payload
type AddFundsRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"` // Top-up amount
}

// AddFundsHandler adds cash to the user's balance and records a CASH ledger
// row, atomically and under the user's lock.
func AddFundsHandler(store *ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			apology(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var req AddFundsRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			apology(c, http.StatusBadRequest, "Invalid amount")
			return
		}
		unlock := store.LockUser(userID)
		defer unlock()
		if err := store.AddFunds(userID, req.Amount); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"amount":  req.Amount,
				"error":   err.Error(),
			}).Error("Add funds failed")
			apology(c, http.StatusInternalServerError, "Add funds failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,
			"amount":    req.Amount,
			"type":      "add_funds",
			"timestamp": time.Now().Format(time.RFC3339),
		}).Info("Funds added")
		invalidateUserCaches(c.Request.Context(), rdb, userID)
		balance, err := store.Balance(userID)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to read balance")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":         "Funds added",
			"balance":         balance,
			"balance_display": utils.USD(balance),
		})
	}
}

// HistoryHandler returns the user's paginated transaction history, newest
// first, with Redis caching per page.
func HistoryHandler(store *ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			apology(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		page := 1      // Default page
		pageSize := 20 // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v
			}
		}
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v
			}
		}
		ctx := c.Request.Context()
		cacheKey := "txhistory:user:" + strconv.Itoa(int(userID)) +
			":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		var cached struct {
			Transactions []domain.Transaction `json:"transactions"`
			Page         int                  `json:"page"`
			PageSize     int                  `json:"page_size"`
			Total        int64                `json:"total"`
			TotalPages   int                  `json:"total_pages"`
		}
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"transactions": cached.Transactions,
				"page":         cached.Page,
				"page_size":    cached.PageSize,
				"total":        cached.Total,
				"total_pages":  cached.TotalPages,
				"cached":       true,
			})
			return
		}
		transactions, total, err := store.History(userID, page, pageSize)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to fetch transactions")
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": transactions,
			"page":         page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  totalPages,
			"cached":       false,
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp)
	}
}

// PricesHandler returns recent price snapshots for a symbol. When no local
// snapshots exist yet it backfills from the oracle's daily series.
func PricesHandler(store *ledger.Store, oracle market.Oracle) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol, err := engine.ParseSymbol(c.Param("symbol"))
		if err != nil {
			apology(c, http.StatusBadRequest, err.Error())
			return
		}
		prices, err := store.Prices(symbol, 100)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to fetch prices")
			return
		}
		if len(prices) == 0 {
			series, err := oracle.History(c.Request.Context(), symbol)
			if err != nil {
				apology(c, http.StatusNotFound, "Historical data not found")
				return
			}
			for _, day := range series {
				p := domain.StockPrice{Symbol: symbol, Price: day.Close, Timestamp: day.Date}
				if err := store.RecordPrice(p); err == nil {
					prices = append(prices, p)
				}
			}
		}
		c.JSON(http.StatusOK, gin.H{"symbol": symbol, "prices": prices})
	}
}
