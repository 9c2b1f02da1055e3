package blog

import (
	"regexp"
	"strings"
	"time"

	"portfolio-api/internal/httputil"
	"portfolio-api/internal/locale"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title, collapses every run of characters outside
// [a-z0-9] into a single '-' and strips leading and trailing dashes.
func Slugify(title string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// Normalize trims the free text fields of the input.
func (in Input) Normalize() Input {
	in.Title = in.Title.Trim()
	in.Description = in.Description.Trim()
	in.Content = in.Content.Trim()
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Category = Category(strings.ToLower(strings.TrimSpace(string(in.Category))))
	in.Tags = locale.TrimList(in.Tags)
	in.Thumbnail = strings.TrimSpace(in.Thumbnail)
	in.Author = strings.TrimSpace(in.Author)
	return in
}

// Prepare builds the document to persist from a validated input.
// existing is nil on create. Server managed fields (id, views, createdAt,
// publishedAt) are carried over from existing; publishedAt is set the first
// time the post is saved as published and never changes afterwards.
func Prepare(in Input, existing *Blog, now time.Time) (*Blog, error) {
	in = in.Normalize()

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Title.EN)
		if slug == "" {
			return nil, httputil.NewFieldError("slug", "slug could not be derived from title.en")
		}
	}

	category := in.Category
	if category == "" {
		category = CategoryArticle
	}

	author := in.Author
	if author == "" {
		author = DefaultAuthor
	}

	content := in.Content
	b := &Blog{
		Title:       in.Title,
		Slug:        slug,
		Description: in.Description,
		Content:     &content,
		Category:    category,
		Tags:        in.Tags,
		Thumbnail:   in.Thumbnail,
		Published:   in.Published,
		Featured:    in.Featured,
		Author:      author,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if existing != nil {
		b.ID = existing.ID
		b.Views = existing.Views
		b.CreatedAt = existing.CreatedAt
		b.PublishedAt = existing.PublishedAt
	}

	if b.Published && b.PublishedAt == nil {
		publishedAt := now
		b.PublishedAt = &publishedAt
	}

	return b, nil
}
