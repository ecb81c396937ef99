package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-seller/internal/model"
)

func TestRequirePrincipal(t *testing.T) {
	_, err := RequirePrincipal(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ctx := WithPrincipal(context.Background(), &Principal{ID: 1, Role: model.RoleStudent})
	p, err := RequirePrincipal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
}

func TestRequireRole(t *testing.T) {
	student := WithPrincipal(context.Background(), &Principal{ID: 1, Role: model.RoleStudent})
	admin := WithPrincipal(context.Background(), &Principal{ID: 2, Role: model.RoleAdmin})

	_, err := RequireRole(context.Background(), model.RoleTeacher, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = RequireRole(student, model.RoleTeacher, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := RequireRole(admin, model.RoleTeacher, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, p.Role)
}

func TestCanModify(t *testing.T) {
	owner := &Principal{ID: 10, Role: model.RoleTeacher}
	other := &Principal{ID: 11, Role: model.RoleTeacher}
	admin := &Principal{ID: 12, Role: model.RoleAdmin}
	var anon *Principal

	assert.True(t, owner.CanModify(10))
	assert.False(t, other.CanModify(10))
	assert.True(t, admin.CanModify(10))
	assert.False(t, anon.CanModify(10))
}
