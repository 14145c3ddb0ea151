package portfolio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Balance of a portfolio: Total is equity, Available is free cash.
// Unrealised profit and loss is not rolled into Total; it only moves
// when a Position exits.
type Balance struct {
	Time      time.Time `json:"time"`
	Total     float64   `json:"total"`
	Available float64   `json:"available"`
}

// BalanceID returns the unique persistence key for the Balance of the
// portfolio identified by engineID.
func BalanceID(engineID uuid.UUID) string {
	return fmt.Sprintf("balance_%s", engineID)
}
