// Package jobs holds background work scheduled outside the request path.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"stocksim/internal/domain"
	"stocksim/internal/ledger"
	"stocksim/internal/market"
)

// snapshotHeldPrices looks up every currently-held symbol and appends a price
// snapshot. Individual failures are logged and skipped; the job never aborts.
func snapshotHeldPrices(store *ledger.Store, oracle market.Oracle) {
	symbols, err := store.HeldSymbols()
	if err != nil {
		logrus.WithField("error", err.Error()).Error("Price snapshot: failed to list held symbols")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	for _, symbol := range symbols {
		q, err := oracle.Lookup(ctx, symbol)
		if err != nil {
			logrus.WithField("symbol", symbol).Warn("Price snapshot: quote unavailable")
			continue
		}
		p := domain.StockPrice{Symbol: q.Symbol, Price: q.Price, Timestamp: time.Now()}
		if err := store.RecordPrice(p); err != nil {
			logrus.WithFields(logrus.Fields{
				"symbol": symbol,
				"error":  err.Error(),
			}).Error("Price snapshot: write failed")
		}
	}
	logrus.WithField("symbols", len(symbols)).Info("Price snapshot completed")
}

// StartPriceSnapshots schedules the held-symbol snapshot job. An empty spec
// disables the job; an invalid spec is fatal at boot.
func StartPriceSnapshots(spec string, store *ledger.Store, oracle market.Oracle) *cron.Cron {
	if spec == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { snapshotHeldPrices(store, oracle) }); err != nil {
		logrus.Fatalf("invalid price snapshot cron spec %q: %v", spec, err)
	}
	c.Start()
	logrus.WithField("spec", spec).Info("Price snapshot job scheduled")
	return c
}
