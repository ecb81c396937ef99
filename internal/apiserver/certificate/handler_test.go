package certificate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

func setup(t *testing.T) (*repository.Store, *httptest.Server, *model.User, *model.Course, *model.Enrollment) {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	teacher := &model.User{Email: "t@example.com", PasswordHash: "x", Name: "T",
		Role: model.RoleTeacher, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, store.CreateUser(ctx, teacher))
	student := &model.User{Email: "s@example.com", PasswordHash: "x", Name: "S",
		Role: model.RoleStudent, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, store.CreateUser(ctx, student))
	course := &model.Course{Title: "Go", TeacherID: teacher.ID,
		Status: model.CourseStatusPublished, CreatedAt: time.Now()}
	require.NoError(t, store.CreateCourse(ctx, course))
	enrollment := &model.Enrollment{UserID: student.ID, CourseID: course.ID, EnrolledAt: time.Now()}
	require.NoError(t, store.CreateEnrollment(ctx, enrollment))

	mux := http.NewServeMux()
	NewHandler(store).RegisterRoutes(mux)
	srv := httptest.NewServer(identify(store, mux))
	t.Cleanup(srv.Close)
	return store, srv, student, course, enrollment
}

func generate(t *testing.T, srv *httptest.Server, userID, courseID int64) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]any{"course_id": courseID}))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/certificates/generate", &buf)
	require.NoError(t, err)
	if userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestGenerateRequiresCompletion(t *testing.T) {
	store, srv, student, course, enrollment := setup(t)
	ctx := context.Background()

	// 未完成课程不签发
	resp := generate(t, srv, student.ID, course.ID)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.NoError(t, store.SetEnrollmentCompleted(ctx, enrollment.ID, true))

	resp = generate(t, srv, student.ID, course.ID)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cert model.Certificate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cert))
	assert.Equal(t, student.ID, cert.UserID)
	assert.Equal(t, fmt.Sprintf("/certificates/%d/%d", student.ID, course.ID), cert.CertificateURL)
}

func TestGenerateIdempotent(t *testing.T) {
	store, srv, student, course, enrollment := setup(t)
	require.NoError(t, store.SetEnrollmentCompleted(context.Background(), enrollment.ID, true))

	first := generate(t, srv, student.ID, course.ID)
	defer first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)
	var a model.Certificate
	require.NoError(t, json.NewDecoder(first.Body).Decode(&a))

	// 重复调用返回已有证书
	second := generate(t, srv, student.ID, course.ID)
	defer second.Body.Close()
	require.Equal(t, http.StatusOK, second.StatusCode)
	var b model.Certificate
	require.NoError(t, json.NewDecoder(second.Body).Decode(&b))
	assert.Equal(t, a.ID, b.ID)
}

func TestGenerateAccessRules(t *testing.T) {
	store, srv, _, course, _ := setup(t)
	ctx := context.Background()

	// 匿名
	resp := generate(t, srv, 0, course.ID)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 未选课
	outsider := &model.User{Email: "x@example.com", PasswordHash: "x", Name: "X",
		Role: model.RoleStudent, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, store.CreateUser(ctx, outsider))
	resp = generate(t, srv, outsider.ID, course.ID)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// 课程不存在
	resp = generate(t, srv, outsider.ID, 9999)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListMyCertificates(t *testing.T) {
	store, srv, student, course, enrollment := setup(t)
	require.NoError(t, store.SetEnrollmentCompleted(context.Background(), enrollment.ID, true))

	resp := generate(t, srv, student.ID, course.ID)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/certificates/my", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", strconv.FormatInt(student.ID, 10))
	list, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer list.Body.Close()
	require.Equal(t, http.StatusOK, list.StatusCode)

	var certs []*model.Certificate
	require.NoError(t, json.NewDecoder(list.Body).Decode(&certs))
	require.Len(t, certs, 1)
	assert.Equal(t, course.ID, certs[0].CourseID)
}
