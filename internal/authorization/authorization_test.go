package authorization

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/scraprates/internal/auth/password"
	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var cheap = password.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	h, err := password.HashWith(secret, cheap)
	require.NoError(t, err)
	return h
}

func newTestService(t *testing.T) Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthenticatorResolvesRoles(t *testing.T) {
	cfg := config.Config{Admin: config.AdminConfig{
		AdminPasswordHash:    mustHash(t, "admin-secret"),
		OperatorPasswordHash: mustHash(t, "operator-secret"),
	}}
	authn, err := NewAuthenticator(cfg, zap.NewNop())
	require.NoError(t, err)

	cases := []struct {
		header string
		want   Principal
		err    error
	}{
		{"Bearer admin-secret", Principal{Subject: SubjectAdmin, Role: RoleAdmin}, nil},
		{"bearer operator-secret", Principal{Subject: SubjectOperator, Role: RoleOperator}, nil},
		{"Bearer wrong", Principal{}, ErrUnauthorized},
		{"Basic admin-secret", Principal{}, ErrUnauthorized},
		{"", Principal{}, ErrUnauthorized},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/api/admin/notes", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		got, err := authn.Authorize(r)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.header)
			continue
		}
		require.NoError(t, err, tc.header)
		assert.Equal(t, tc.want, got)
	}

	// second call is served from the verified cache
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer admin-secret")
	got, err := authn.Authorize(r)
	require.NoError(t, err)
	assert.Equal(t, SubjectAdmin, got.Subject)
}

func TestAuthenticatorWithoutCredentialsRejectsEverything(t *testing.T) {
	authn, err := NewAuthenticator(config.Config{}, zap.NewNop())
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer admin123")
	_, err = authn.Authorize(r)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticatorHashesPlainAdminPassword(t *testing.T) {
	authn, err := NewAuthenticator(config.Config{Admin: config.AdminConfig{AdminPassword: "dev-only"}}, zap.NewNop())
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer dev-only")
	got, err := authn.Authorize(r)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, got.Role)
}

func TestAuthenticatorRejectsMalformedHash(t *testing.T) {
	_, err := NewAuthenticator(config.Config{Admin: config.AdminConfig{AdminPasswordHash: "admin123"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestRolePolicies(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	admin := Principal{Subject: SubjectAdmin, Role: RoleAdmin}
	operator := Principal{Subject: SubjectOperator, Role: RoleOperator}

	assert.NoError(t, svc.Authorize(ctx, admin, ObjectActivationCode, ActionGenerate))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectAuditLog, ActionView))
	assert.NoError(t, svc.Authorize(ctx, operator, ObjectRateItem, ActionUpdate))
	assert.NoError(t, svc.Authorize(ctx, operator, ObjectCategory, ActionDelete))

	assert.ErrorIs(t, svc.Authorize(ctx, operator, ObjectActivationCode, ActionGenerate), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, operator, ObjectAuditLog, ActionView), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, Principal{Subject: "stranger"}, ObjectNote, ActionView), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, Principal{}, ObjectNote, ActionView), ErrUnauthorized)
	assert.ErrorIs(t, svc.Authorize(ctx, admin, "", ActionView), ErrInvalidObject)
}

func TestSeedingIsIdempotent(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = NewEnforcer(db)
	require.NoError(t, err)
	_, err = NewEnforcer(db)
	require.NoError(t, err)

	var rules int64
	require.NoError(t, db.Table("casbin_rule").Count(&rules).Error)
	assert.EqualValues(t, 17, rules)
}
