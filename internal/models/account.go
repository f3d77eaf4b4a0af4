package models

import "time"

// UserAccount is a row of the users table. Credits are only ever changed
// by the ledger.
type UserAccount struct {
	UserID    string    `json:"userId" db:"user_id"`
	Credits   int       `json:"credits" db:"credits"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
