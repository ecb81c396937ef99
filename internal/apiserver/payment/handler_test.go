package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
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

func setup(t *testing.T) (*repository.Store, *httptest.Server, *model.User, *model.Course) {
	t.Helper()
	store := newTestStore(t)
	ctx := context.Background()

	teacher := &model.User{Email: "t@example.com", PasswordHash: "x", Name: "T",
		Role: model.RoleTeacher, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, store.CreateUser(ctx, teacher))
	student := &model.User{Email: "s@example.com", PasswordHash: "x", Name: "S",
		Role: model.RoleStudent, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, store.CreateUser(ctx, student))

	course := &model.Course{Title: "Go", Price: 199.0, TeacherID: teacher.ID,
		Status: model.CourseStatusPublished, CreatedAt: time.Now()}
	require.NoError(t, store.CreateCourse(ctx, course))

	mux := http.NewServeMux()
	NewHandler(store).RegisterRoutes(mux)
	srv := httptest.NewServer(identify(store, mux))
	t.Cleanup(srv.Close)
	return store, srv, student, course
}

func purchase(t *testing.T, srv *httptest.Server, userID, courseID int64) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]any{"course_id": courseID}))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/payments", &buf)
	require.NoError(t, err)
	if userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

var txnRe = regexp.MustCompile(`^TXN-[0-9A-F]{12}$`)

func TestPurchaseAutoEnrolls(t *testing.T) {
	store, srv, student, course := setup(t)
	ctx := context.Background()

	resp := purchase(t, srv, student.ID, course.ID)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p model.Payment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)
	assert.Equal(t, 199.0, p.Amount, "amount pinned to course price")
	assert.Regexp(t, txnRe, p.TransactionID)

	// 自动选课 + 学生数增加
	e, err := store.GetEnrollment(ctx, student.ID, course.ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	c, err := store.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalStudents)
}

func TestPurchaseTwiceRejected(t *testing.T) {
	_, srv, student, course := setup(t)

	resp := purchase(t, srv, student.ID, course.ID)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = purchase(t, srv, student.ID, course.ID)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPurchaseUnpublishedCourse(t *testing.T) {
	store, srv, student, course := setup(t)
	require.NoError(t, store.UpdateCourseStatus(context.Background(), course.ID, model.CourseStatusDraft))

	resp := purchase(t, srv, student.ID, course.ID)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPurchaseRequiresAuth(t *testing.T) {
	_, srv, _, course := setup(t)

	resp := purchase(t, srv, 0, course.ID)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListMyPayments(t *testing.T) {
	_, srv, student, course := setup(t)

	resp := purchase(t, srv, student.ID, course.ID)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/payments/my", nil)
	req.Header.Set("X-User-ID", strconv.FormatInt(student.ID, 10))
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var payments []*model.Payment
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&payments))
	require.Len(t, payments, 1)
	assert.Equal(t, course.ID, payments[0].CourseID)
}

func TestNewTransactionIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newTransactionID()
		assert.Regexp(t, txnRe, id)
		assert.False(t, seen[id], "transaction ids must not repeat")
		seen[id] = true
	}
}
