package models

import "strings"

// User defines the user model based on the 'users' table
type User struct {
	ID           UserID   `json:"id" db:"id" example:"1"`
	Username     string   `json:"username" db:"username" example:"ana"`
	PasswordHash string   `json:"-" db:"password_hash"`
	FirstName    string   `json:"firstName" db:"first_name" example:"Ana"`
	LastName     string   `json:"lastName" db:"last_name" example:"García"`
	RoleType     RoleType `json:"roleType" db:"role" example:"STUDENT"`
}

// NewUser creates a user holding an already hashed password
func NewUser(username, passwordHash, firstName, lastName string, role RoleType) *User {
	return &User{
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		RoleType:     role,
	}
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Validate checks the user's fields
func (u *User) Validate() error {
	var v validator
	v.required("username", u.Username)
	v.maxLen("username", u.Username, MaxUsernameLength)
	v.required("passwordHash", u.PasswordHash)
	v.maxLen("firstName", u.FirstName, MaxNameLength)
	v.maxLen("lastName", u.LastName, MaxNameLength)
	if !u.RoleType.Valid() {
		v.add("roleType", "must be TEACHER or STUDENT")
	}
	return v.err()
}
