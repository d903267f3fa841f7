// Package ledger is the persistence layer: user accounts, cash balances and
// the append-only transaction log. Holdings are never stored; they are
// recomputed by summing share deltas per (user, symbol) on every read.
package ledger

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stocksim/internal/domain"
)

var (
	// ErrDuplicateUsername is returned when registering a name that is taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrInvalidCredentials is returned on any login failure. Unknown user and
	// wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username and/or password")
)

// Holding is the derived aggregate position for one symbol.
type Holding struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Shares int64  `json:"shares"`
}

// Store wraps the database plus the per-user lock table that serializes
// read-modify-write sequences on a user's balance.
type Store struct {
	db           *gorm.DB
	locks        *userLocks
	startingCash float64
}

// NewStore builds a Store. startingCash is seeded into every new account.
func NewStore(db *gorm.DB, startingCash float64) *Store {
	return &Store{db: db, locks: newUserLocks(), startingCash: startingCash}
}

// DB exposes the underlying handle for migrations and read-only queries.
func (s *Store) DB() *gorm.DB { return s.db }

// LockUser enters the user's critical section and returns the release func.
// Every buy, sell and add-funds sequence runs under this lock so two
// concurrent requests cannot both spend the same balance.
func (s *Store) LockUser(userID uint) func() {
	return s.locks.lock(userID)
}

// CreateUser registers a new account with a hashed password and the starting
// cash balance. The username is lowercased before the uniqueness check.
func (s *Store) CreateUser(username, password string) (uint, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	user := domain.User{
		Username: strings.ToLower(username),
		Password: string(hash),
		Cash:     s.startingCash,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			return 0, ErrDuplicateUsername
		}
		return 0, err
	}
	return user.ID, nil
}

// VerifyCredentials checks a username/password pair and returns the user ID.
func (s *Store) VerifyCredentials(username, password string) (uint, error) {
	var user domain.User
	if err := s.db.Where("username = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		return 0, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return user.ID, nil
}

// Balance returns the user's current cash on hand.
func (s *Store) Balance(userID uint) (float64, error) {
	var user domain.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.Cash, nil
}

// Holdings recomputes the user's positions from the ledger. Symbols whose
// aggregate is zero or negative are filtered out, as is the CASH marker.
func (s *Store) Holdings(userID uint) ([]Holding, error) {
	var holdings []Holding
	err := s.db.Model(&domain.Transaction{}).
		Select("symbol, MAX(name) AS name, SUM(shares) AS shares").
		Where("user_id = ? AND symbol <> ?", userID, domain.CashSymbol).
		Group("symbol").
		Having("SUM(shares) > 0").
		Order("symbol").
		Scan(&holdings).Error
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

// Holding returns the aggregate share count for one (user, symbol) pair.
// A symbol the user never traded yields zero, not an error.
func (s *Store) Holding(userID uint, symbol string) (int64, error) {
	var shares int64
	err := s.db.Model(&domain.Transaction{}).
		Select("COALESCE(SUM(shares), 0)").
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Scan(&shares).Error
	if err != nil {
		return 0, err
	}
	return shares, nil
}

// CommitTrade writes the balance update and the ledger append as one database
// transaction. Either both land or neither does.
func (s *Store) CommitTrade(userID uint, newBalance float64, rec domain.Transaction) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).
			Update("cash", newBalance).Error; err != nil {
			return err // Return error to rollback
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err // Return error to rollback
		}
		return nil // Commit transaction
	})
}

// AddFunds tops up the user's cash and records a CASH ledger row, atomically.
func (s *Store) AddFunds(userID uint, amount float64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).Where("id = ?", userID).
			Update("cash", gorm.Expr("cash + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		rec := domain.Transaction{
			Reference: newReference(),
			UserID:    userID,
			Symbol:    domain.CashSymbol,
			Name:      "Funds added",
			Shares:    0,
			Price:     amount,
		}
		return tx.Create(&rec).Error
	})
}

// History returns the user's ledger page, newest first, plus the total count.
func (s *Store) History(userID uint, page, pageSize int) ([]domain.Transaction, int64, error) {
	var total int64
	if err := s.db.Model(&domain.Transaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var transactions []domain.Transaction
	err := s.db.Where("user_id = ?", userID).
		Order("transacted_at desc, id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// HeldSymbols lists every symbol some user currently holds a positive amount
// of. Feeds the price snapshot job.
func (s *Store) HeldSymbols() ([]string, error) {
	var symbols []string
	err := s.db.Model(&domain.Transaction{}).
		Select("symbol").
		Where("symbol <> ?", domain.CashSymbol).
		Group("symbol").
		Having("SUM(shares) > 0").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, err
	}
	return symbols, nil
}

// RecordPrice appends a quote snapshot for the history view.
func (s *Store) RecordPrice(p domain.StockPrice) error {
	return s.db.Create(&p).Error
}

// Prices returns persisted snapshots for one symbol, newest first.
func (s *Store) Prices(symbol string, limit int) ([]domain.StockPrice, error) {
	var prices []domain.StockPrice
	err := s.db.Where("symbol = ?", symbol).
		Order("timestamp desc").
		Limit(limit).
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}
