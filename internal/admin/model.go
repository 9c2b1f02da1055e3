package admin

import (
	"time"

	"github.com/uptrace/bun"
)

type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:a"`

	ID          string     `bun:"id,pk,type:uuid" json:"id"`
	Email       string     `bun:"email,unique,notnull" json:"email"`
	Password    string     `bun:"password,notnull" json:"-"`
	Name        string     `bun:"name,notnull" json:"name"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	LastLoginAt *time.Time `bun:"last_login_at" json:"lastLoginAt,omitempty"`
}

// Profile is the public view of an admin returned by the auth endpoints.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (a *Admin) Profile() Profile {
	return Profile{ID: a.ID, Email: a.Email, Name: a.Name}
}

type SeedInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Name     string `validate:"required"`
}
