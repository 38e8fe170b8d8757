package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func TestRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "clinic-api", time.Hour)
	actor := model.Actor{Subject: "dr-petrova", Role: model.RoleDoctor, DoctorID: uuid.New()}

	token, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestRejectsBadTokens(t *testing.T) {
	svc := NewJWTService("secret", "clinic-api", time.Hour)
	actor := model.Actor{Subject: "ivan", Role: model.RolePatient, PatientID: uuid.New()}

	other, err := NewJWTService("other-secret", "clinic-api", time.Hour).GenerateAccessToken(actor)
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewJWTService("secret", "someone-else", time.Hour).GenerateAccessToken(actor)
	require.NoError(t, err)
	_, err = svc.ValidateToken(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := &jwtService{secret: []byte("secret"), issuer: "clinic-api", ttl: time.Minute,
		now: func() time.Time { return time.Now().Add(-time.Hour) }}
	old, err := expired.GenerateAccessToken(actor)
	require.NoError(t, err)
	_, err = svc.ValidateToken(old)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: model.RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
