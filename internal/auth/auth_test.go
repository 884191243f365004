package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapRoleStore struct {
	platform map[uuid.UUID]string
	course   map[uuid.UUID]map[uuid.UUID]string
}

func (m *mapRoleStore) PlatformRole(ctx context.Context, userID uuid.UUID) (string, error) {
	return m.platform[userID], nil
}

func (m *mapRoleStore) CourseRole(ctx context.Context, userID, courseID uuid.UUID) (string, error) {
	return m.course[courseID][userID], nil
}

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)
	userID := uuid.New()

	signed, err := ts.Issue(userID, []string{RoleManager})
	require.NoError(t, err)

	claims, err := ts.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{RoleManager}, claims.Roles)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokenService("secret", time.Hour).Issue(uuid.New(), nil)
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsExpired(t *testing.T) {
	ts := NewTokenService("secret", time.Nanosecond)
	signed, err := ts.Issue(uuid.New(), nil)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = ts.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := NewTokenService("secret", time.Hour)
	userID := uuid.New()

	r := gin.New()
	r.GET("/whoami", RequireAuth(ts), func(c *gin.Context) {
		actor, ok := ActorID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.String()})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	signed, err := ts.Issue(userID, nil)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuthorizerRoles(t *testing.T) {
	admin := uuid.New()
	teacher := uuid.New()
	student := uuid.New()
	outsider := uuid.New()
	courseID := uuid.New()

	store := &mapRoleStore{
		platform: map[uuid.UUID]string{admin: RoleAdmin},
		course: map[uuid.UUID]map[uuid.UUID]string{
			courseID: {teacher: RoleManager, student: RoleViewer},
		},
	}
	a := NewAuthorizer(store)
	ctx := context.Background()

	assert.NoError(t, a.CanManage(ctx, admin, nil))
	assert.NoError(t, a.CanManage(ctx, admin, &courseID))
	assert.NoError(t, a.CanManage(ctx, teacher, &courseID))
	assert.ErrorIs(t, a.CanManage(ctx, teacher, nil), ErrForbidden)
	assert.ErrorIs(t, a.CanManage(ctx, student, &courseID), ErrForbidden)
	assert.NoError(t, a.CanView(ctx, student, &courseID))
	assert.ErrorIs(t, a.CanView(ctx, outsider, &courseID), ErrForbidden)
}
