package model

import "time"

// Role is the authorization scope of a user.
type Role string

const (
    RoleTrader Role = "TRADER"
    RoleAdmin  Role = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column in the
// database.  The password hash is never serialised to clients.
//
// Fields:
//  ID           – UUID primary key.
//  Name         – first name, derived from FullName at registration.
//  FullName     – full legal name.
//  LegalID      – 11 digit CPF, digits only, unique.
//  Phone        – phone number, digits only.
//  Company      – company or brokerage the trader works for.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – TRADER or ADMIN.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           string    `db:"id" json:"id"`                // users.id
    Name         string    `db:"name" json:"name"`            // users.name
    FullName     string    `db:"full_name" json:"fullName"`   // users.full_name
    LegalID      string    `db:"legal_id" json:"legalId"`     // users.legal_id
    Phone        string    `db:"phone" json:"phone"`          // users.phone
    Company      string    `db:"company" json:"company"`      // users.company
    Email        string    `db:"email" json:"email"`          // users.email
    PasswordHash string    `db:"password_hash" json:"-"`      // users.password_hash
    Role         Role      `db:"role" json:"role"`            // users.role
    CreatedAt    time.Time `db:"created_at" json:"createdAt"` // users.created_at
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
