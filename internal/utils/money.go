package utils

import (
	"math"

	"github.com/Rhymond/go-money"
)

// USD formats a float amount as a display string like "$1,234.50".
func USD(amount float64) string {
	cents := int64(math.Round(amount * 100))
	return money.New(cents, money.USD).Display()
}
