package domain

// User Model
type User struct {
	ID       uint    `json:"id" gorm:"primaryKey"`            // Primary key
	Username string  `json:"username" gorm:"unique;not null"` // Unique username, stored lowercase
	Password string  `json:"-" gorm:"not null"`               // Bcrypt hash, never serialized
	Cash     float64 `json:"cash" gorm:"not null;default:0"`  // Cash on hand in USD
}
