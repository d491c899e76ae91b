package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – name of the role (CLIENT, PROVIDER or ADMIN).
//  Name         – display name shown to the other booking party.
//  Phone        – optional contact phone (clients).
//  CompanyName  – optional company name (providers).
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Name         string    // users.name
	Phone        *string   // users.phone (nullable)
	CompanyName  *string   // users.company_name (nullable)
	CreatedAt    time.Time // users.created_at
}
