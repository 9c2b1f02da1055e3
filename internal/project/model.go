package project

import (
	"time"

	"portfolio-api/internal/locale"

	"github.com/uptrace/bun"
)

type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID              string               `bun:"id,pk,type:uuid" json:"id"`
	Title           locale.Text          `bun:"title,type:jsonb,notnull" json:"title"`
	Description     locale.Text          `bun:"description,type:jsonb,notnull" json:"description"`
	LongDescription *locale.OptionalText `bun:"long_description,type:jsonb" json:"longDescription,omitempty"`
	Technologies    []string             `bun:"technologies,array" json:"technologies"`
	Category        string               `bun:"category,notnull" json:"category"`
	Image           string               `bun:"image,notnull" json:"image"`
	DemoURL         string               `bun:"demo_url,notnull" json:"demoUrl"`
	GithubURL       string               `bun:"github_url,notnull" json:"githubUrl"`
	Featured        bool                 `bun:"featured,notnull" json:"featured"`
	Published       bool                 `bun:"published,notnull" json:"published"`
	Order           int                  `bun:"sort_order,notnull" json:"order"`
	CreatedAt       time.Time            `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time            `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Input is the admin supplied body of POST /projects and PUT /projects/{id}.
// Published is a pointer because an omitted value means true.
type Input struct {
	Title           locale.Text          `json:"title"`
	Description     locale.Text          `json:"description"`
	LongDescription *locale.OptionalText `json:"longDescription"`
	Technologies    []string             `json:"technologies"`
	Category        string               `json:"category" validate:"required,max=80"`
	Image           string               `json:"image" validate:"required,url"`
	DemoURL         string               `json:"demoUrl" validate:"omitempty,url"`
	GithubURL       string               `json:"githubUrl" validate:"omitempty,url"`
	Featured        bool                 `json:"featured"`
	Published       *bool                `json:"published"`
	Order           int                  `json:"order"`
}

type ListFilter struct {
	Category string
	Featured bool
}
