package blog

import (
	"time"

	"portfolio-api/internal/locale"

	"github.com/uptrace/bun"
)

type Category string

const (
	CategoryTutorial Category = "tutorial"
	CategoryTip      Category = "tip"
	CategoryArticle  Category = "article"
	CategoryNews     Category = "news"
)

const DefaultAuthor = "Nikoloz Kuridze"

type Blog struct {
	bun.BaseModel `bun:"table:blogs,alias:b"`

	ID          string       `bun:"id,pk,type:uuid" json:"id"`
	Title       locale.Text  `bun:"title,type:jsonb,notnull" json:"title"`
	Slug        string       `bun:"slug,unique,notnull" json:"slug"`
	Description locale.Text  `bun:"description,type:jsonb,notnull" json:"description"`
	Content     *locale.Text `bun:"content,type:jsonb" json:"content,omitempty"`
	Category    Category     `bun:"category,notnull" json:"category"`
	Tags        []string     `bun:"tags,array" json:"tags"`
	Thumbnail   string       `bun:"thumbnail,notnull" json:"thumbnail"`
	Published   bool         `bun:"published,notnull" json:"published"`
	Featured    bool         `bun:"featured,notnull" json:"featured"`
	Views       int64        `bun:"views,notnull" json:"views"`
	Author      string       `bun:"author,notnull" json:"author"`
	PublishedAt *time.Time   `bun:"published_at" json:"publishedAt"`
	CreatedAt   time.Time    `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time    `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Input is the admin supplied body of POST /blogs and PUT /blogs/{id}.
type Input struct {
	Title       locale.Text `json:"title"`
	Slug        string      `json:"slug" validate:"omitempty,slug"`
	Description locale.Text `json:"description"`
	Content     locale.Text `json:"content"`
	Category    Category    `json:"category" validate:"omitempty,oneof=tutorial tip article news"`
	Tags        []string    `json:"tags"`
	Thumbnail   string      `json:"thumbnail" validate:"omitempty,url"`
	Published   bool        `json:"published"`
	Featured    bool        `json:"featured"`
	Author      string      `json:"author" validate:"max=120"`
}

type ListFilter struct {
	Category Category
	Featured bool
	Page     int
	Limit    int
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type ListResult struct {
	Blogs      []Blog
	Pagination Pagination
}
