package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"portfolio-api/internal/admin"
	"portfolio-api/internal/auth"
	"portfolio-api/internal/logger"
	"portfolio-api/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memAdmins struct {
	mu     sync.Mutex
	admins map[string]*admin.Admin
}

func (m *memAdmins) Create(_ context.Context, a *admin.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[a.ID] = a
	return nil
}

func (m *memAdmins) GetByEmail(_ context.Context, email string) (*admin.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, admin.ErrAdminNotFound
}

func (m *memAdmins) GetByID(_ context.Context, id string) (*admin.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return nil, admin.ErrAdminNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memAdmins) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.admins[id]; ok {
		a.LastLoginAt = &at
	}
	return nil
}

func (m *memAdmins) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.admins, id)
}

const password = "open-sesame"

type authEnv struct {
	router chi.Router
	admins *memAdmins
	tokens *auth.TokenManager
}

func setupAuth(t *testing.T, perMinute, burst int, opts ...auth.RateLimiterOption) *authEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	admins := &memAdmins{admins: map[string]*admin.Admin{
		"a1": {ID: "a1", Email: "admin@example.com", Password: string(hash), Name: "Admin"},
	}}

	log := logger.Discard()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	service := auth.NewService(admins, tokens, log, metrics.NewMock())
	handler := auth.NewHandler(service, tokens, auth.NewRateLimiter(perMinute, burst, opts...), log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	router.With(handler.RequireAuth()).Get("/private", func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFromContext(r.Context())
		w.Write([]byte(id.AdminID))
	})

	return &authEnv{router: router, admins: admins, tokens: tokens}
}

func (e *authEnv) login(t *testing.T, email, pw, ip string) *httptest.ResponseRecorder {
	t.Helper()
	return e.loginFrom(t, email, pw, ip+":4000", "")
}

func (e *authEnv) loginFrom(t *testing.T, email, pw, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": pw})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *authEnv) get(path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type loginBody struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Admin   admin.Profile `json:"admin"`
	Message string        `json:"message"`
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		env := setupAuth(t, 10, 10)

		w := env.login(t, " Admin@Example.com ", password, "10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp loginBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, admin.Profile{ID: "a1", Email: "admin@example.com", Name: "Admin"}, resp.Admin)
		assert.NotContains(t, w.Body.String(), "password")

		claims, err := env.tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "a1", claims.Subject)

		stored, err := env.admins.GetByID(context.Background(), "a1")
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		env := setupAuth(t, 10, 10)

		w := env.login(t, "admin@example.com", "wrong", "10.0.0.2")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, w.Body.String())
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		env := setupAuth(t, 10, 10)

		w := env.login(t, "nobody@example.com", password, "10.0.0.3")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, w.Body.String())
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		env := setupAuth(t, 10, 10)

		w := env.login(t, "not-an-email", "", "10.0.0.4")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"email"`)
		assert.Contains(t, w.Body.String(), `"field":"password"`)
	})

	t.Run("RateLimited", func(t *testing.T) {
		env := setupAuth(t, 10, 10)

		for i := 0; i < 10; i++ {
			w := env.login(t, "admin@example.com", "wrong", "10.0.0.5")
			require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
		}

		w := env.login(t, "admin@example.com", password, "10.0.0.5")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)

		w = env.login(t, "admin@example.com", password, "10.0.0.6")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("RotatingForwardedForIsIgnored", func(t *testing.T) {
		env := setupAuth(t, 10, 10)

		for i := 0; i < 10; i++ {
			w := env.loginFrom(t, "admin@example.com", "wrong", "203.0.113.9:4444", fmt.Sprintf("198.51.100.%d", i))
			require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
		}

		w := env.loginFrom(t, "admin@example.com", password, "203.0.113.9:4444", "198.51.100.200")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("TrustedForwardedFor", func(t *testing.T) {
		env := setupAuth(t, 10, 1, auth.WithForwardedFor())

		w := env.loginFrom(t, "admin@example.com", "wrong", "10.0.0.1:4000", "198.51.100.1")
		require.Equal(t, http.StatusUnauthorized, w.Code)

		w = env.loginFrom(t, "admin@example.com", "wrong", "10.0.0.1:4000", "198.51.100.1")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		w = env.loginFrom(t, "admin@example.com", password, "10.0.0.1:4000", "198.51.100.2")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMiddlewareAndVerify(t *testing.T) {
	env := setupAuth(t, 100, 100)
	token, err := env.tokens.Issue("a1", "admin@example.com")
	require.NoError(t, err)

	t.Run("MissingToken", func(t *testing.T) {
		w := env.get("/private", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"No token, authorization denied"}`, w.Body.String())
	})

	t.Run("WrongScheme", func(t *testing.T) {
		w := env.get("/private", "Basic "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "No token, authorization denied")
	})

	t.Run("InvalidToken", func(t *testing.T) {
		other, err := auth.NewTokenManager("other-secret", time.Hour).Issue("a1", "admin@example.com")
		require.NoError(t, err)

		w := env.get("/private", "Bearer "+other)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Token is not valid"}`, w.Body.String())
	})

	t.Run("ValidTokenSetsIdentity", func(t *testing.T) {
		w := env.get("/private", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "a1", w.Body.String())
	})

	t.Run("Verify", func(t *testing.T) {
		w := env.get("/auth/verify", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"admin":{"id":"a1","email":"admin@example.com","name":"Admin"}}`, w.Body.String())
	})

	t.Run("VerifyWithoutToken", func(t *testing.T) {
		w := env.get("/auth/verify", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("VerifyDeletedAdmin", func(t *testing.T) {
		env.admins.remove("a1")

		w := env.get("/auth/verify", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
