package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer")

var provinceAdmin = domain.Actor{
	ID:       domain.NewUserID(),
	Role:     domain.RoleProvinceAdmin,
	Province: domain.LocationRef{ID: "8d7c0d4e-4c1b-4f65-9a43-6a6a9f3b2a11"},
}

func Test_GenerateToken(t *testing.T) {
	token, err := jwtService.GenerateToken(provinceAdmin, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, provinceAdmin.ID.String(), claims.Subject)
	assert.Equal(t, string(domain.RoleProvinceAdmin), claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateToken(provinceAdmin, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "token has expired", de.Message)
}

func Test_ValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTService("test-signing-key", "someone-else")
	token, err := other.GenerateToken(provinceAdmin, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "super_admin"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestActorValidator(t *testing.T) {
	validator := NewActorValidator(jwtService)

	t.Run("round trips the actor", func(t *testing.T) {
		token, err := jwtService.GenerateToken(provinceAdmin, time.Hour)
		require.NoError(t, err)

		actor, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, provinceAdmin, actor)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		token, err := jwtService.GenerateToken(domain.Actor{ID: domain.NewUserID(), Role: "janitor"}, time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
