package domain

import "errors"

// Sentinel errors surfaced by repositories and services. Handlers map them
// to HTTP status codes; async callers log them and move on.
var (
	ErrNotFound            = errors.New("not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceFrozen       = errors.New("balance is frozen")
	ErrInvalidInput        = errors.New("invalid input")
	ErrAlreadySettled      = errors.New("order already settled")
)
