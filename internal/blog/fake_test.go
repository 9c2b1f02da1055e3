package blog_test

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"portfolio-api/internal/blog"
	"portfolio-api/internal/httputil"
)

// memRepository is an in-memory blog.Repository for handler tests.
type memRepository struct {
	mu    sync.Mutex
	seq   int
	blogs map[string]blog.Blog
}

func newMemRepository() *memRepository {
	return &memRepository{blogs: make(map[string]blog.Blog)}
}

func (m *memRepository) Create(_ context.Context, b *blog.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.blogs {
		if existing.Slug == b.Slug {
			return blog.ErrDuplicateSlug
		}
	}
	m.seq++
	b.ID = strconv.Itoa(m.seq)
	m.blogs[b.ID] = *b
	return nil
}

func (m *memRepository) ListPublished(_ context.Context, filter blog.ListFilter) ([]blog.Blog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]blog.Blog, 0)
	for _, b := range m.blogs {
		if !b.Published {
			continue
		}
		if filter.Category != "" && b.Category != filter.Category {
			continue
		}
		if filter.Featured && !b.Featured {
			continue
		}
		b.Content = nil
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(*out[j].PublishedAt) {
			return out[i].PublishedAt.After(*out[j].PublishedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	total := len(out)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (m *memRepository) ListAll(_ context.Context) ([]blog.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]blog.Blog, 0, len(m.blogs))
	for _, b := range m.blogs {
		b.Content = nil
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepository) GetByID(_ context.Context, id string) (*blog.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blogs[id]
	if !ok {
		return nil, blog.ErrBlogNotFound
	}
	return &b, nil
}

func (m *memRepository) IncrementViews(_ context.Context, slug string) (*blog.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.blogs {
		if b.Slug == slug && b.Published {
			b.Views++
			m.blogs[id] = b
			return &b, nil
		}
	}
	return nil, blog.ErrBlogNotFound
}

func (m *memRepository) Replace(_ context.Context, b *blog.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[b.ID]; !ok {
		return blog.ErrBlogNotFound
	}
	for id, existing := range m.blogs {
		if id != b.ID && existing.Slug == b.Slug {
			return blog.ErrDuplicateSlug
		}
	}
	m.blogs[b.ID] = *b
	return nil
}

func (m *memRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[id]; !ok {
		return blog.ErrBlogNotFound
	}
	delete(m.blogs, id)
	return nil
}

func (m *memRepository) Ping(context.Context) error { return nil }

func (m *memRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blogs)
}

const testToken = "test-token"

// requireTestToken accepts only "Bearer test-token".
func requireTestToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			httputil.RespondWithError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}
