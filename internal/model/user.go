package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Handlers define their own response types with JSON tags, so
// this struct carries none.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique email address (stored lower-cased).
//  PasswordHash – bcrypt hashed password.
//  IsAdmin      – grants table management and visibility of all bookings.
//  Disabled     – disabled users are rejected at the identity boundary.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    IsAdmin      bool      // users.is_admin
    Disabled     bool      // users.disabled
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

