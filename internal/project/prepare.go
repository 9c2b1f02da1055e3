package project

import (
	"strings"
	"time"

	"portfolio-api/internal/locale"
)

func (in Input) Normalize() Input {
	in.Title = in.Title.Trim()
	in.Description = in.Description.Trim()
	if in.LongDescription != nil {
		long := in.LongDescription.Trim()
		in.LongDescription = &long
	}
	in.Technologies = locale.TrimList(in.Technologies)
	in.Category = strings.TrimSpace(in.Category)
	in.Image = strings.TrimSpace(in.Image)
	in.DemoURL = strings.TrimSpace(in.DemoURL)
	in.GithubURL = strings.TrimSpace(in.GithubURL)
	return in
}

// Prepare builds the document to persist from a validated input. existing is
// nil on create; its id and createdAt are kept on update.
func Prepare(in Input, existing *Project, now time.Time) *Project {
	in = in.Normalize()

	published := true
	if in.Published != nil {
		published = *in.Published
	}

	var long *locale.OptionalText
	if in.LongDescription != nil && !in.LongDescription.IsZero() {
		long = in.LongDescription
	}

	p := &Project{
		Title:           in.Title,
		Description:     in.Description,
		LongDescription: long,
		Technologies:    in.Technologies,
		Category:        in.Category,
		Image:           in.Image,
		DemoURL:         in.DemoURL,
		GithubURL:       in.GithubURL,
		Featured:        in.Featured,
		Published:       published,
		Order:           in.Order,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}

	return p
}
