// Package locale holds the bilingual text type shared by blog posts and projects.
package locale

import "strings"

const (
	English  = "en"
	Georgian = "ka"
)

// Text is a translation of one field into every supported locale.
// Both locales are mandatory.
type Text struct {
	EN string `json:"en" bson:"en" validate:"required"`
	KA string `json:"ka" bson:"ka" validate:"required"`
}

// Trim returns t with surrounding whitespace removed from both translations.
func (t Text) Trim() Text {
	return Text{EN: strings.TrimSpace(t.EN), KA: strings.TrimSpace(t.KA)}
}

// Get returns the translation for lang, falling back to English.
func (t Text) Get(lang string) string {
	if lang == Georgian && t.KA != "" {
		return t.KA
	}
	return t.EN
}

// OptionalText is a translation where every locale may be left empty.
type OptionalText struct {
	EN string `json:"en" bson:"en"`
	KA string `json:"ka" bson:"ka"`
}

func (t OptionalText) Trim() OptionalText {
	return OptionalText{EN: strings.TrimSpace(t.EN), KA: strings.TrimSpace(t.KA)}
}

func (t OptionalText) IsZero() bool {
	return t.EN == "" && t.KA == ""
}

// Supported reports whether lang is one of the site locales.
func Supported(lang string) bool {
	return lang == English || lang == Georgian
}

// TrimList trims every entry and drops the empty ones, keeping order.
func TrimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
