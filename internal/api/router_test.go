package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"stashbox/internal/app/service"
	"stashbox/internal/common"
	"stashbox/internal/common/security"
	"stashbox/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stores standing in for postgres, with the same atomicity the
// real ones get from the unique index.

type memUserRepo struct {
	mu     sync.Mutex
	byName map[string]*model.User
}

func (m *memUserRepo) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[user.Username]; exists {
		return common.ErrConflict
	}
	stored := *user
	stored.CreatedAt = time.Now()
	m.byName[user.Username] = &stored
	return nil
}

func (m *memUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byName {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

type memItemRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Item
}

func (m *memItemRepo) Create(ctx context.Context, item *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *item
	stored.CreatedAt = time.Now()
	m.byID[item.ID] = &stored
	return nil
}

func (m *memItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *memItemRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []model.Item{}
	for _, item := range m.byID {
		if item.OwnerID == ownerID && len(items) < limit {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (m *memItemRepo) Update(ctx context.Context, item *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[item.ID]; !ok {
		return common.ErrNotFound
	}
	stored := *item
	m.byID[item.ID] = &stored
	return nil
}

func (m *memItemRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens := security.NewTokenService([]byte("test-secret"), time.Hour)
	authService := service.NewAuthService(&memUserRepo{byName: map[string]*model.User{}}, tokens)
	itemService := service.NewItemService(&memItemRepo{byID: map[string]*model.Item{}}, nil)
	return NewRouter(authService, itemService)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signupAndLogin(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	loginRec := httptest.NewRecorder()
	router.ServeHTTP(loginRec, req)
	require.Equal(t, http.StatusOK, loginRec.Code, loginRec.Body.String())

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &tokenResp))
	assert.Equal(t, "bearer", tokenResp.TokenType)
	require.NotEmpty(t, tokenResp.AccessToken)
	return tokenResp.AccessToken
}

func TestEndToEnd_ItemLifecycle(t *testing.T) {
	router := newTestRouter(t)

	aliceToken := signupAndLogin(t, router, "alice", "pw123")

	// Fresh account starts with an empty list
	rec := doJSON(t, router, http.MethodGet, "/api/v1/items/", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	// Create an item
	rec = doJSON(t, router, http.MethodPost, "/api/v1/items/", aliceToken, map[string]interface{}{
		"title": "milk",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "milk", created.Title)
	assert.NotEmpty(t, created.OwnerID)

	// The owner can read it back
	rec = doJSON(t, router, http.MethodGet, "/api/v1/items/"+created.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Another user sees the same 404 as for a nonexistent id
	bobToken := signupAndLogin(t, router, "bob", "hunter2")
	foreign := doJSON(t, router, http.MethodGet, "/api/v1/items/"+created.ID, bobToken, nil)
	missing := doJSON(t, router, http.MethodGet, "/api/v1/items/does-not-exist", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, missing.Body.String(), foreign.Body.String(),
		"foreign and missing items must be indistinguishable")

	// Partial update: tags only, title untouched
	rec = doJSON(t, router, http.MethodPut, "/api/v1/items/"+created.ID, aliceToken, map[string]interface{}{
		"tags": []string{"dairy"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "milk", updated.Title)
	assert.Equal(t, []string{"dairy"}, updated.Tags)

	// Delete, then it is gone
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/items/"+created.ID, aliceToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/api/v1/items/"+created.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEndToEnd_AuthFailures(t *testing.T) {
	router := newTestRouter(t)

	signupAndLogin(t, router, "alice", "pw123")

	// Wrong password and unknown user produce identical responses
	for _, creds := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "mallory", "password": "wrong"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Contains(t, rec.Body.String(), "Incorrect username or password")
	}

	// Duplicate signup conflicts
	rec := doJSON(t, router, http.MethodPost, "/api/v1/signup", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "pw456",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Protected routes without a token
	rec = doJSON(t, router, http.MethodGet, "/api/v1/items/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	rec = doJSON(t, router, http.MethodGet, "/api/v1/items/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired token gets its own message
	expiredService := security.NewTokenService([]byte("test-secret"), time.Hour)
	expired, err := expiredService.Issue("alice", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	rec = doJSON(t, router, http.MethodGet, "/api/v1/items/", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expired")
}

func TestEndToEnd_UsersMe(t *testing.T) {
	router := newTestRouter(t)

	token := signupAndLogin(t, router, "alice", "pw123")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.NotContains(t, rec.Body.String(), "hashed_password")
}

func TestEndToEnd_ListIsOwnerScoped(t *testing.T) {
	router := newTestRouter(t)

	aliceToken := signupAndLogin(t, router, "alice", "pw123")
	bobToken := signupAndLogin(t, router, "bob", "hunter2")

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/items/", aliceToken, map[string]interface{}{
			"title": fmt.Sprintf("item-%d", i),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/items/", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var aliceItems []model.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &aliceItems))
	assert.Len(t, aliceItems, 3)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/items/", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bobItems []model.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bobItems))
	assert.Empty(t, bobItems)
}
