package domain

// Transaction Model. Rows are append-only: a buy is recorded with positive
// Shares, a sell with negative Shares, and a cash top-up with Shares zero and
// the CASH symbol. Holdings are always recomputed by summing Shares per
// (user, symbol), never stored.
type Transaction struct {
	ID           uint    `json:"-" gorm:"primaryKey"`                       // Primary key
	Reference    string  `json:"reference" gorm:"size:36;index"`            // Client-visible UUID
	UserID       uint    `json:"-" gorm:"index;not null"`                   // Foreign key to User
	Symbol       string  `json:"symbol" gorm:"index;not null"`              // Ticker symbol
	Name         string  `json:"name"`                                      // Company name at execution time
	Shares       int64   `json:"shares"`                                    // Signed share delta
	Price        float64 `json:"price"`                                     // Unit price at execution time
	TransactedAt int64   `json:"transacted_at" gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}

// CashSymbol marks ledger rows that record a funds top-up rather than a trade.
const CashSymbol = "CASH"
