package domain

import (
	"time"

	"github.com/google/uuid"
)

// Operator is a station operator account
type Operator struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// OperatorCredentials are shown once when an operator account is generated
type OperatorCredentials struct {
	OperatorID uuid.UUID
	Username   string
	Email      string
	Password   string
}
