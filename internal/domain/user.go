package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameAlreadyExists indicates that the username is taken.
	ErrUsernameAlreadyExists = errors.New("username already exists")
	// ErrEmailAlreadyExists indicates that the email is taken.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrWrongPassword indicates that the given password is invalid.
	ErrWrongPassword = errors.New("wrong password")
)

// User holds user data together with the balance pair the ledger protects.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"hashed_password"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	IsAdmin        bool      `json:"is_admin"`
	FundingBalance string    `json:"funding_balance"`
	HoldingBalance string    `json:"holding_balance"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateUserParams is the input data to create a user.
type CreateUserParams struct {
	Username       string `json:"username"`
	HashedPassword string `json:"hashed_password"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
}

// UserWithoutPassword holds user data with sensitive fields removed.
type UserWithoutPassword struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	IsAdmin        bool      `json:"is_admin"`
	FundingBalance string    `json:"funding_balance"`
	HoldingBalance string    `json:"holding_balance"`
	CreatedAt      time.Time `json:"created_at"`
}
