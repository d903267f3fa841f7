// Package api holds the Gin handlers. Handlers stay thin: input validation
// and the trade math live in internal/engine, persistence in internal/ledger,
// quote lookups in internal/market.
package api

import (
	"context"
	"strconv"
	"time"

	"stocksim/internal/domain"
	"stocksim/internal/ledger"
	"stocksim/internal/market"
	"stocksim/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// apology sends a user-facing error message with a status code.
func apology(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// currentUser pulls the authenticated user ID the JWT middleware stored.
func currentUser(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := v.(uint)
	return userID, ok
}

// quoteForSymbol resolves a quote through the Redis cache, falling back to the
// oracle and persisting a price snapshot on a cache miss.
func quoteForSymbol(ctx context.Context, oracle market.Oracle, store *ledger.Store, rdb *redis.Client, symbol string, ttl time.Duration) (market.Quote, error) {
	cacheKey := "quote:" + symbol
	var q market.Quote
	if found, err := utils.GetCache(ctx, rdb, cacheKey, &q); err == nil && found {
		return q, nil
	}
	q, err := oracle.Lookup(ctx, symbol)
	if err != nil {
		return market.Quote{}, err
	}
	_ = utils.SetCache(ctx, rdb, cacheKey, q, ttl)
	// Snapshot for the local price history; best effort.
	_ = store.RecordPrice(domain.StockPrice{Symbol: q.Symbol, Price: q.Price, Timestamp: time.Now()})
	return q, nil
}

// invalidateUserCaches drops the portfolio and transaction-history cache
// entries after a mutation (simple version: delete first 5 history pages).
func invalidateUserCaches(ctx context.Context, rdb *redis.Client, userID uint) {
	user := strconv.Itoa(int(userID))
	_ = utils.DeleteCache(ctx, rdb, "portfolio:user:"+user)
	txPrefix := "txhistory:user:" + user
	for i := 1; i <= 5; i++ {
		_ = utils.DeleteCache(ctx, rdb, txPrefix+":page:"+strconv.Itoa(i)+":size:20")
	}
}
