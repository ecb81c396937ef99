package course

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/model"
	sqlitedriver "course-seller/internal/storage/driver/sqlite"
	"course-seller/internal/storage/repository"
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

// identify 从 X-User-ID 测试头加载主体，模拟认证中间件的实时角色读取
func identify(store *repository.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("X-User-ID"); v != "" {
			id, _ := strconv.ParseInt(v, 10, 64)
			if u, err := store.GetUserByID(r.Context(), id); err == nil && u != nil && u.IsActive {
				p := &auth.Principal{ID: u.ID, Email: u.Email, Role: u.Role}
				r = r.WithContext(auth.WithPrincipal(r.Context(), p))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func newTestServer(t *testing.T, store *repository.Store) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(store).RegisterRoutes(mux)
	srv := httptest.NewServer(identify(store, mux))
	t.Cleanup(srv.Close)
	return srv
}

func mustCreateUser(t *testing.T, store *repository.Store, email string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", Name: "U", Role: role,
		IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func do(t *testing.T, method, url string, userID int64, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateCourse(t *testing.T) {
	store := newTestStore(t)
	srv := newTestServer(t, store)
	teacher := mustCreateUser(t, store, "t@example.com", model.RoleTeacher)
	student := mustCreateUser(t, store, "s@example.com", model.RoleStudent)

	resp := do(t, http.MethodPost, srv.URL+"/api/courses", teacher.ID,
		map[string]any{"title": "Go basics", "price": 49.9})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.Course
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, teacher.ID, created.TeacherID)
	assert.Equal(t, model.CourseStatusDraft, created.Status)

	// 学生不能建课
	resp2 := do(t, http.MethodPost, srv.URL+"/api/courses", student.ID,
		map[string]any{"title": "Nope", "price": 1.0})
	resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)

	// 负价格拒绝
	resp3 := do(t, http.MethodPost, srv.URL+"/api/courses", teacher.ID,
		map[string]any{"title": "Bad", "price": -1.0})
	resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestListOnlyPublished(t *testing.T) {
	store := newTestStore(t)
	srv := newTestServer(t, store)
	teacher := mustCreateUser(t, store, "t@example.com", model.RoleTeacher)

	ctx := context.Background()
	draft := &model.Course{Title: "Draft", TeacherID: teacher.ID, Status: model.CourseStatusDraft, CreatedAt: time.Now()}
	require.NoError(t, store.CreateCourse(ctx, draft))
	published := &model.Course{Title: "Published", TeacherID: teacher.ID, Status: model.CourseStatusPublished, CreatedAt: time.Now()}
	require.NoError(t, store.CreateCourse(ctx, published))

	resp := do(t, http.MethodGet, srv.URL+"/api/courses", 0, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var courses []*model.Course
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "Published", courses[0].Title)

	// 教师自己的列表包含草稿
	resp2 := do(t, http.MethodGet, srv.URL+"/api/courses/my", teacher.ID, nil)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var mine []*model.Course
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&mine))
	assert.Len(t, mine, 2)
}

func TestUpdateCourseOwnership(t *testing.T) {
	store := newTestStore(t)
	srv := newTestServer(t, store)
	owner := mustCreateUser(t, store, "owner@example.com", model.RoleTeacher)
	other := mustCreateUser(t, store, "other@example.com", model.RoleTeacher)
	admin := mustCreateUser(t, store, "admin@example.com", model.RoleAdmin)

	c := &model.Course{Title: "Mine", TeacherID: owner.ID, Status: model.CourseStatusDraft, CreatedAt: time.Now()}
	require.NoError(t, store.CreateCourse(context.Background(), c))
	url := srv.URL + "/api/courses/" + strconv.FormatInt(c.ID, 10)

	// 非属主教师禁止
	resp := do(t, http.MethodPut, url, other.ID, map[string]any{"title": "Hijacked"})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// 属主可改
	resp = do(t, http.MethodPut, url, owner.ID, map[string]any{"title": "Renamed", "status": "published"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Course
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.CourseStatusPublished, updated.Status)

	// 部分更新：未提供的字段不变
	resp = do(t, http.MethodPut, url, owner.ID, map[string]any{"price": 9.9})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 9.9, updated.Price)

	// 管理员可删
	resp = do(t, http.MethodDelete, url, admin.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := store.GetCourse(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetCourseNotFound(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	resp := do(t, http.MethodGet, srv.URL+"/api/courses/9999", 0, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/courses/abc", 0, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
