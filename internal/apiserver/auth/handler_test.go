package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-seller/internal/model"
	"course-seller/internal/storage/repository"
	sqlitedriver "course-seller/internal/storage/driver/sqlite"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestServer(t *testing.T, store *repository.Store) *httptest.Server {
	t.Helper()
	h := NewHandler(store, testCfg, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(Middleware(testCfg, store)(mux))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func registerUser(t *testing.T, srv *httptest.Server, email, role string) {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/auth/register", map[string]string{
		"email": email, "name": "Test User", "password": "password123", "role": role,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func loginUser(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"email": email, "password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	require.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"ok student", map[string]string{"email": "s@example.com", "name": "S", "password": "password123"}, http.StatusCreated},
		{"ok teacher", map[string]string{"email": "t@example.com", "name": "T", "password": "password123", "role": "teacher"}, http.StatusCreated},
		{"admin role rejected", map[string]string{"email": "a@example.com", "name": "A", "password": "password123", "role": "admin"}, http.StatusBadRequest},
		{"unknown role", map[string]string{"email": "x@example.com", "name": "X", "password": "password123", "role": "wizard"}, http.StatusBadRequest},
		{"short password", map[string]string{"email": "p@example.com", "name": "P", "password": "short"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "not-an-email", "name": "N", "password": "password123"}, http.StatusBadRequest},
		{"missing fields", map[string]string{"email": "m@example.com"}, http.StatusBadRequest},
		{"duplicate email", map[string]string{"email": "s@example.com", "name": "S2", "password": "password123"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/auth/register", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRegisterNeverReturnsHash(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	resp := postJSON(t, srv.URL+"/api/auth/register", map[string]string{
		"email": "u@example.com", "name": "U", "password": "password123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "password")
	assert.Equal(t, "u@example.com", body["email"])
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))
	registerUser(t, srv, "known@example.com", "")

	readError := func(body map[string]string) string { return body["error"] }

	// 未知邮箱与已知邮箱错密码：同一状态码、同一错误文案
	respUnknown := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"email": "unknown@example.com", "password": "password123",
	})
	defer respUnknown.Body.Close()
	respWrongPW := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"email": "known@example.com", "password": "wrongpassword",
	})
	defer respWrongPW.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, respUnknown.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, respWrongPW.StatusCode)

	var b1, b2 map[string]string
	require.NoError(t, json.NewDecoder(respUnknown.Body).Decode(&b1))
	require.NoError(t, json.NewDecoder(respWrongPW.Body).Decode(&b2))
	assert.Equal(t, readError(b1), readError(b2))
}

func TestLoginDeactivatedAccount(t *testing.T) {
	store := newTestStore(t)
	srv := newTestServer(t, store)
	registerUser(t, srv, "user@example.com", "")

	user, err := store.GetUserByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NoError(t, store.SetUserActive(context.Background(), user.ID, false))

	resp := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"email": "user@example.com", "password": "password123",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMeRequiresAuth(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	resp, err := http.Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeWithToken(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))
	registerUser(t, srv, "me@example.com", "teacher")
	token := loginUser(t, srv, "me@example.com", "password123")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user model.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "me@example.com", user.Email)
	assert.Equal(t, model.RoleTeacher, user.Role)
	assert.Empty(t, user.PasswordHash)
}

func TestDeactivatedUserTokenBecomesAnonymous(t *testing.T) {
	store := newTestStore(t)
	srv := newTestServer(t, store)
	registerUser(t, srv, "revoked@example.com", "")
	token := loginUser(t, srv, "revoked@example.com", "password123")

	user, err := store.GetUserByEmail(context.Background(), "revoked@example.com")
	require.NoError(t, err)
	require.NoError(t, store.SetUserActive(context.Background(), user.ID, false))

	// 令牌本身仍然有效，但停用后的主体被当作匿名处理
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInvalidAuthorizationHeaders(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	headers := []string{
		"Bearer not-a-token",
		"Basic dXNlcjpwYXNz",
		"Bearer",
		"bearer ",
	}
	for _, header := range headers {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
		req.Header.Set("Authorization", header)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}
}

func TestRoleGuardMatrix(t *testing.T) {
	store := newTestStore(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /teacher-only", RequireTeacher(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /admin-only", RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	srv := httptest.NewServer(Middleware(testCfg, store)(mux))
	t.Cleanup(srv.Close)

	makeUser := func(email string, role model.UserRole) string {
		hash, err := HashPassword("password123")
		require.NoError(t, err)
		u := &model.User{Email: email, PasswordHash: hash, Name: "U", Role: role, IsActive: true, CreatedAt: time.Now()}
		require.NoError(t, store.CreateUser(context.Background(), u))
		token, err := IssueToken(testCfg, u.ID, role)
		require.NoError(t, err)
		return token
	}

	studentTok := makeUser("student@example.com", model.RoleStudent)
	teacherTok := makeUser("teacher@example.com", model.RoleTeacher)
	adminTok := makeUser("admin@example.com", model.RoleAdmin)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"anonymous teacher route", "/teacher-only", "", http.StatusUnauthorized},
		{"student teacher route", "/teacher-only", studentTok, http.StatusForbidden},
		{"teacher teacher route", "/teacher-only", teacherTok, http.StatusNoContent},
		{"admin teacher route", "/teacher-only", adminTok, http.StatusNoContent},
		{"anonymous admin route", "/admin-only", "", http.StatusUnauthorized},
		{"student admin route", "/admin-only", studentTok, http.StatusForbidden},
		{"teacher admin route", "/admin-only", teacherTok, http.StatusForbidden},
		{"admin admin route", "/admin-only", adminTok, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestEnsureAdminUser(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, EnsureAdminUser(store, "admin@example.com", "adminpass123"))
	admin, err := store.GetUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, CheckPassword("adminpass123", admin.PasswordHash))

	// 幂等：重复调用不报错不重复创建
	require.NoError(t, EnsureAdminUser(store, "admin@example.com", "adminpass123"))

	// 未配置时为空操作
	require.NoError(t, EnsureAdminUser(store, "", ""))
}

func TestEnsureAdminUpgradesExistingRole(t *testing.T) {
	store := newTestStore(t)

	hash, err := HashPassword("password123")
	require.NoError(t, err)
	u := &model.User{Email: "promote@example.com", PasswordHash: hash, Name: "P",
		Role: model.RoleStudent, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, store.CreateUser(context.Background(), u))

	require.NoError(t, EnsureAdminUser(store, "promote@example.com", "whatever123"))
	got, err := store.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	// 已有密码不被覆盖
	assert.True(t, CheckPassword("password123", got.PasswordHash))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.RemoteAddr = "192.0.2.10:54321"
	assert.Equal(t, "192.0.2.10", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5")
	assert.Equal(t, "203.0.113.5", clientIP(r))

	// 多级代理链取最左端地址
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1, 10.0.0.2")
	assert.Equal(t, "203.0.113.5", clientIP(r))

	r.Header.Set("X-Forwarded-For", " 198.51.100.7 ,10.0.0.1")
	assert.Equal(t, "198.51.100.7", clientIP(r))
}
