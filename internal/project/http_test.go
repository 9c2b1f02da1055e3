package project_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"portfolio-api/internal/events"
	"portfolio-api/internal/httputil"
	"portfolio-api/internal/logger"
	"portfolio-api/internal/metrics"
	"portfolio-api/internal/project"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepository struct {
	mu       sync.Mutex
	seq      int
	projects map[string]project.Project
}

func newMemRepository() *memRepository {
	return &memRepository{projects: make(map[string]project.Project)}
}

func (m *memRepository) Create(_ context.Context, p *project.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = strconv.Itoa(m.seq)
	m.projects[p.ID] = *p
	return nil
}

func (m *memRepository) sorted(keep func(project.Project) bool) []project.Project {
	out := make([]project.Project, 0)
	for _, p := range m.projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memRepository) ListPublished(_ context.Context, filter project.ListFilter) ([]project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p project.Project) bool {
		return p.Published &&
			(filter.Category == "" || p.Category == filter.Category) &&
			(!filter.Featured || p.Featured)
	}), nil
}

func (m *memRepository) ListAll(_ context.Context) ([]project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(project.Project) bool { return true }), nil
}

func (m *memRepository) GetByID(_ context.Context, id string) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	return &p, nil
}

func (m *memRepository) Replace(_ context.Context, p *project.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return project.ErrProjectNotFound
	}
	m.projects[p.ID] = *p
	return nil
}

func (m *memRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return project.ErrProjectNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *memRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.projects)
}

func requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ok" {
			httputil.RespondWithError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setupRouter(t *testing.T) (chi.Router, *memRepository) {
	t.Helper()

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	log := logger.Discard()
	repo := newMemRepository()
	notifier := events.NewNotifier(events.Noop{}, log, metrics.NewMock())
	service := project.NewService(repo, notifier, metrics.NewMock(), project.WithClock(tick))
	handler := project.NewHandler(service, log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router, requireToken)
	return router, repo
}

func projectPayload(title string, order int) map[string]interface{} {
	return map[string]interface{}{
		"title":        map[string]string{"en": title, "ka": "პროექტი"},
		"description":  map[string]string{"en": "Description", "ka": "აღწერა"},
		"technologies": []string{"Go", "React"},
		"category":     "web",
		"image":        "https://cdn.example.com/" + title + ".png",
		"order":        order,
	}
}

func send(t *testing.T, router http.Handler, method, path string, payload interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer ok")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type projectBody struct {
	Success bool            `json:"success"`
	Project project.Project `json:"project"`
}

type listBody struct {
	Success  bool              `json:"success"`
	Projects []project.Project `json:"projects"`
}

func createProject(t *testing.T, router http.Handler, payload map[string]interface{}) project.Project {
	t.Helper()
	w := send(t, router, http.MethodPost, "/projects", payload, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp projectBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Project
}

func TestProjectHandler(t *testing.T) {
	t.Run("CreateDefaultsToPublished", func(t *testing.T) {
		router, _ := setupRouter(t)

		created := createProject(t, router, projectPayload("alpha", 0))
		assert.True(t, created.Published)
		assert.False(t, created.Featured)
		assert.Nil(t, created.LongDescription)
		assert.Equal(t, []string{"Go", "React"}, created.Technologies)
	})

	t.Run("CreateValidationFailure", func(t *testing.T) {
		router, repo := setupRouter(t)

		payload := projectPayload("beta", 0)
		payload["image"] = "not a url"
		payload["category"] = "  "
		payload["demoUrl"] = "nope"

		w := send(t, router, http.MethodPost, "/projects", payload, true)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp httputil.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		fields := make([]string, 0, len(resp.Errors))
		for _, fe := range resp.Errors {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(t, []string{"image", "category", "demoUrl"}, fields)
		assert.Equal(t, 0, repo.count())
	})

	t.Run("ListOrdersByOrderField", func(t *testing.T) {
		router, _ := setupRouter(t)

		createProject(t, router, projectPayload("three", 3))
		createProject(t, router, projectPayload("one", 1))
		createProject(t, router, projectPayload("two", 2))

		w := send(t, router, http.MethodGet, "/projects", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Projects, 3)
		assert.Equal(t, 1, resp.Projects[0].Order)
		assert.Equal(t, 2, resp.Projects[1].Order)
		assert.Equal(t, 3, resp.Projects[2].Order)
	})

	t.Run("UnpublishedHiddenFromPublicRoutes", func(t *testing.T) {
		router, _ := setupRouter(t)

		hidden := projectPayload("hidden", 0)
		hidden["published"] = false
		created := createProject(t, router, hidden)
		createProject(t, router, projectPayload("visible", 1))

		w := send(t, router, http.MethodGet, "/projects/"+created.ID, nil, false)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = send(t, router, http.MethodGet, "/projects", nil, false)
		var public listBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&public))
		require.Len(t, public.Projects, 1)
		assert.Equal(t, "visible", public.Projects[0].Title.EN)

		w = send(t, router, http.MethodGet, "/projects/all", nil, true)
		require.Equal(t, http.StatusOK, w.Code)
		var all listBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&all))
		assert.Len(t, all.Projects, 2)
	})

	t.Run("GetPublished", func(t *testing.T) {
		router, _ := setupRouter(t)
		created := createProject(t, router, projectPayload("gamma", 0))

		w := send(t, router, http.MethodGet, "/projects/"+created.ID, nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		var resp projectBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "gamma", resp.Project.Title.EN)
	})

	t.Run("FilterByCategoryAndFeatured", func(t *testing.T) {
		router, _ := setupRouter(t)

		mobile := projectPayload("mobile", 0)
		mobile["category"] = "mobile"
		mobile["featured"] = true
		createProject(t, router, mobile)
		createProject(t, router, projectPayload("web", 0))

		w := send(t, router, http.MethodGet, "/projects?category=mobile&featured=true", nil, false)
		var resp listBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Projects, 1)
		assert.Equal(t, "mobile", resp.Projects[0].Title.EN)
	})

	t.Run("PrivateRoutesRequireToken", func(t *testing.T) {
		router, repo := setupRouter(t)
		created := createProject(t, router, projectPayload("locked", 0))

		for _, method := range []string{http.MethodPut, http.MethodDelete} {
			w := send(t, router, method, "/projects/"+created.ID, projectPayload("changed", 9), false)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		}
		w := send(t, router, http.MethodPost, "/projects", projectPayload("new", 0), false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		assert.Equal(t, 1, repo.count())
		stored, err := repo.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "locked", stored.Title.EN)
	})

	t.Run("Update", func(t *testing.T) {
		router, _ := setupRouter(t)
		created := createProject(t, router, projectPayload("delta", 0))

		payload := projectPayload("delta v2", 5)
		payload["longDescription"] = map[string]string{"en": "Long", "ka": ""}
		w := send(t, router, http.MethodPut, "/projects/"+created.ID, payload, true)
		require.Equal(t, http.StatusOK, w.Code)

		var resp projectBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "delta v2", resp.Project.Title.EN)
		assert.Equal(t, 5, resp.Project.Order)
		require.NotNil(t, resp.Project.LongDescription)
		assert.Equal(t, "Long", resp.Project.LongDescription.EN)
		assert.Equal(t, created.CreatedAt, resp.Project.CreatedAt)
		assert.True(t, resp.Project.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		router, repo := setupRouter(t)

		w := send(t, router, http.MethodPut, "/projects/404", projectPayload("ghost", 0), true)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, 0, repo.count())
	})

	t.Run("Delete", func(t *testing.T) {
		router, repo := setupRouter(t)
		created := createProject(t, router, projectPayload("epsilon", 0))

		w := send(t, router, http.MethodDelete, "/projects/"+created.ID, nil, true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"Project deleted successfully"}`, w.Body.String())
		assert.Equal(t, 0, repo.count())

		w = send(t, router, http.MethodDelete, "/projects/"+created.ID, nil, true)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
