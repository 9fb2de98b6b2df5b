package model

import (
	"time"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	GoogleID     *string   `db:"google_id" json:"-"`
	Email        *string   `db:"email" json:"email"`
	Name         *string   `db:"name" json:"name"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	Username     *string   `db:"username" json:"username"`
	PasswordHash *string   `db:"password_hash" json:"-"` // Nullable for Google-only users
	Age          *int      `db:"age" json:"age"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Public returns a copy without credential material.
func (u *User) Public() *User {
	c := *u
	c.PasswordHash = nil
	return &c
}

// UserUpdate carries the fields a user may change on their own account.
// Nil fields are left untouched.
type UserUpdate struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Age      *int    `json:"age"`
}

func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Password == nil && u.Email == nil && u.Name == nil && u.Age == nil
}

// UserProfile is what other users may see.
type UserProfile struct {
	ID        string    `json:"id"`
	Username  *string   `json:"username"`
	Name      *string   `json:"name"`
	Age       *int      `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
