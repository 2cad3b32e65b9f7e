package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-planner-api/internal/models"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, expiresAt, err := svc.Issue("planner-admin", models.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "planner-admin", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenServiceRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewTokenService("other", time.Hour)
	token, _, err := issuer.Issue("x", models.RoleStudent)
	require.NoError(t, err)

	svc := NewTokenService("secret", time.Hour)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	expired := NewTokenService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.Issue("x", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.Validate("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
