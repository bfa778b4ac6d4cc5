package model

import "time"

// User represents an account that can sign in and book rooms.
// Passwords are never stored in plain text; only a bcrypt hash is
// persisted in the t_users table.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique login identifier, stored lower-cased.
//  FullName     – display name joined into booking listings.
//  PasswordHash – bcrypt hash of the user's password.
//  Role         – ADMIN or MEMBER; admins manage room inventory.
//  IsActive     – whether the account may sign in.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    `json:"id"`        // t_users.user_id
	Email        string    `json:"email"`     // t_users.user_email
	FullName     string    `json:"full_name"` // t_users.user_full_name
	PasswordHash string    `json:"-"`         // t_users.password_hash (never serialized)
	Role         string    `json:"role"`      // t_users.user_role
	IsActive     bool      `json:"is_active"` // t_users.is_active
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
