package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"portfolio-api/internal/client"
	"portfolio-api/internal/logger"

	"github.com/99designs/keyring"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToken = "token-123"

type fakeAPI struct {
	server   *httptest.Server
	requests atomic.Int32
	revoked  atomic.Bool
	lastAuth atomic.Value
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.requests.Add(1)
			api.lastAuth.Store(r.Header.Get("Authorization"))
			next.ServeHTTP(w, r)
		})
	})

	authorized := func(r *http.Request) bool {
		return !api.revoked.Load() && r.Header.Get("Authorization") == "Bearer "+validToken
	}
	write := func(w http.ResponseWriter, code int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		w.Write([]byte(body))
	}

	router.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		switch {
		case body["email"] == "admin@example.com" && body["password"] == "secret":
			write(w, http.StatusOK, `{"success":true,"token":"`+validToken+`","admin":{"id":"a1","email":"admin@example.com","name":"Admin"}}`)
		case body["email"] == "broken@example.com":
			write(w, http.StatusInternalServerError, `not json`)
		default:
			write(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials"}`)
		}
	})
	router.Get("/api/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			write(w, http.StatusUnauthorized, `{"success":false,"message":"Token is not valid"}`)
			return
		}
		write(w, http.StatusOK, `{"success":true,"admin":{"id":"a1","email":"admin@example.com","name":"Renamed"}}`)
	})
	router.Get("/api/blogs/all", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			write(w, http.StatusUnauthorized, `{"success":false,"message":"Token is not valid"}`)
			return
		}
		write(w, http.StatusOK, `{"success":true,"blogs":[{"id":"b1","slug":"hello-world","title":{"en":"Hello","ka":"გამარჯობა"}}]}`)
	})
	router.Get("/api/projects/all", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			write(w, http.StatusUnauthorized, `{"success":false,"message":"Token is not valid"}`)
			return
		}
		write(w, http.StatusOK, `{"success":true,"projects":[{"id":"p1","order":2},{"id":"p2","order":5}]}`)
	})

	api.server = httptest.NewServer(router)
	t.Cleanup(api.server.Close)
	return api
}

func newClient(t *testing.T, api *fakeAPI, ring keyring.Keyring) *client.Client {
	t.Helper()

	session, err := client.NewSession(ring, logger.Discard())
	require.NoError(t, err)
	return client.New(api.server.URL+"/api", session, logger.Discard())
}

func TestSessionLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		api := newFakeAPI(t)
		ring := keyring.NewArrayKeyring(nil)
		c := newClient(t, api, ring)
		session := c.Session()

		require.Equal(t, client.StateAnonymous, session.State())
		require.NoError(t, session.Login(ctx, "admin@example.com", "secret"))

		assert.Equal(t, client.StateAuthenticated, session.State())
		assert.True(t, session.IsAuthenticated())
		assert.Equal(t, validToken, session.Token())
		require.NotNil(t, session.Admin())
		assert.Equal(t, "admin@example.com", session.Admin().Email)

		item, err := ring.Get("admin-session")
		require.NoError(t, err)
		assert.Contains(t, string(item.Data), validToken)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		api := newFakeAPI(t)
		session := newClient(t, api, keyring.NewArrayKeyring(nil)).Session()

		err := session.Login(ctx, "admin@example.com", "nope")
		require.Error(t, err)
		assert.Equal(t, "Invalid credentials", err.Error())

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, client.StateAnonymous, session.State())
		assert.Empty(t, session.Token())
		assert.Nil(t, session.Admin())
	})

	t.Run("UnreadableFailureIsNormalized", func(t *testing.T) {
		api := newFakeAPI(t)
		session := newClient(t, api, keyring.NewArrayKeyring(nil)).Session()

		err := session.Login(ctx, "broken@example.com", "secret")
		require.Error(t, err)
		assert.Equal(t, "Login failed", err.Error())
		assert.Equal(t, client.StateAnonymous, session.State())
	})

	t.Run("FailedReloginForgetsPersistedSession", func(t *testing.T) {
		api := newFakeAPI(t)
		ring := keyring.NewArrayKeyring(nil)
		session := newClient(t, api, ring).Session()
		require.NoError(t, session.Login(ctx, "admin@example.com", "secret"))

		err := session.Login(ctx, "broken@example.com", "secret")
		require.Error(t, err)
		assert.Equal(t, client.StateAnonymous, session.State())

		_, err = ring.Get("admin-session")
		assert.ErrorIs(t, err, keyring.ErrKeyNotFound)

		reloaded := newClient(t, api, ring).Session()
		assert.Equal(t, client.StateAnonymous, reloaded.State())
		assert.Empty(t, reloaded.Token())
	})

	t.Run("Detached", func(t *testing.T) {
		session, err := client.NewSession(keyring.NewArrayKeyring(nil), logger.Discard())
		require.NoError(t, err)
		assert.ErrorIs(t, session.Login(ctx, "admin@example.com", "secret"), client.ErrNotAttached)
	})
}

func TestSessionPersistence(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(t)
	ring := keyring.NewArrayKeyring(nil)

	first := newClient(t, api, ring)
	require.NoError(t, first.Session().Login(ctx, "admin@example.com", "secret"))

	restored := newClient(t, api, ring).Session()
	assert.Equal(t, client.StateAuthenticated, restored.State())
	assert.Equal(t, validToken, restored.Token())

	require.NoError(t, restored.Logout())
	assert.Equal(t, client.StateAnonymous, restored.State())
	assert.Empty(t, restored.Token())
	assert.Nil(t, restored.Admin())

	_, err := ring.Get("admin-session")
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)

	again := newClient(t, api, ring).Session()
	assert.Equal(t, client.StateAnonymous, again.State())
}

func TestSessionVerifyToken(t *testing.T) {
	ctx := context.Background()

	t.Run("NoTokenNoRequest", func(t *testing.T) {
		api := newFakeAPI(t)
		session := newClient(t, api, keyring.NewArrayKeyring(nil)).Session()

		assert.False(t, session.VerifyToken(ctx))
		assert.Zero(t, api.requests.Load())
	})

	t.Run("ValidTokenRefreshesAdmin", func(t *testing.T) {
		api := newFakeAPI(t)
		session := newClient(t, api, keyring.NewArrayKeyring(nil)).Session()
		require.NoError(t, session.Login(ctx, "admin@example.com", "secret"))

		assert.True(t, session.VerifyToken(ctx))
		assert.Equal(t, "Renamed", session.Admin().Name)
		assert.Equal(t, client.StateAuthenticated, session.State())
		assert.Equal(t, "Bearer "+validToken, api.lastAuth.Load())
	})

	t.Run("RejectedTokenClearsSession", func(t *testing.T) {
		api := newFakeAPI(t)
		ring := keyring.NewArrayKeyring(nil)
		session := newClient(t, api, ring).Session()
		require.NoError(t, session.Login(ctx, "admin@example.com", "secret"))

		api.revoked.Store(true)
		assert.False(t, session.VerifyToken(ctx))
		assert.Equal(t, client.StateAnonymous, session.State())
		assert.Empty(t, session.Token())
		assert.Nil(t, session.Admin())

		_, err := ring.Get("admin-session")
		assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
	})

	t.Run("UnreachableServerClearsSession", func(t *testing.T) {
		api := newFakeAPI(t)
		session := newClient(t, api, keyring.NewArrayKeyring(nil)).Session()
		require.NoError(t, session.Login(ctx, "admin@example.com", "secret"))

		api.server.Close()
		assert.False(t, session.VerifyToken(ctx))
		assert.Equal(t, client.StateAnonymous, session.State())
	})
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("ListsWithToken", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newClient(t, api, keyring.NewArrayKeyring(nil))
		require.NoError(t, c.Session().Login(ctx, "admin@example.com", "secret"))

		blogs, err := c.ListAllBlogs(ctx)
		require.NoError(t, err)
		require.Len(t, blogs, 1)
		assert.Equal(t, "hello-world", blogs[0].Slug)

		projects, err := c.ListAllProjects(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, 2, projects[0].Order)
	})

	t.Run("AnyUnauthorizedLogsOut", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newClient(t, api, keyring.NewArrayKeyring(nil))
		require.NoError(t, c.Session().Login(ctx, "admin@example.com", "secret"))

		api.revoked.Store(true)
		_, err := c.ListAllBlogs(ctx)

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, client.StateAnonymous, c.Session().State())
		assert.Empty(t, c.Session().Token())
	})

	t.Run("AnonymousRequestHasNoHeader", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newClient(t, api, keyring.NewArrayKeyring(nil))

		_, err := c.ListAllProjects(ctx)
		require.Error(t, err)
		assert.Equal(t, "", api.lastAuth.Load())
	})
}
