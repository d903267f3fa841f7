package domain

import "time"

// StockPrice is a persisted quote snapshot, written by the quote endpoints and
// the background snapshot job. Feeds the per-symbol price history view.
type StockPrice struct {
	ID        uint      `json:"-" gorm:"primaryKey"`          // Primary key
	Symbol    string    `json:"symbol" gorm:"index;not null"` // Ticker symbol
	Price     float64   `json:"price"`                        // Observed price
	Timestamp time.Time `json:"timestamp"`                    // When the price was observed
}
