package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a trading customer
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"` // Never expose password hash in JSON
	Balance          float64    `json:"balance"`
	ReputationPoints int        `json:"reputation_points"`
	VIPLevel         string     `json:"vip_level"`
	Country          string     `json:"country"`
	ReferredBy       *uuid.UUID `json:"referred_by,omitempty"` // Sub-admin that invited this user
	IsGonnaWin       bool       `json:"is_gonna_win"`
	IsBalanceFrozen  bool       `json:"is_balance_frozen"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Admin represents a back-office operator
type Admin struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           string     `json:"role"`
	InvitationCode string     `json:"invitation_code"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Role constants
const (
	RoleSuperAdmin = "superadmin"
	RoleSubAdmin   = "subadmin"
	RoleUser       = "user"
)

// Default account values for new registrations
const (
	DefaultReputationPoints = 100
	DefaultVIPLevel         = "Bronze"
)
