package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/induspec/plant-maintenance/internal/models"
)

func testService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService("chave-de-teste", time.Hour)
	require.NoError(t, err)
	return service
}

func plannerUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "cfernandes",
		Role:     models.RolePlanner,
	}
}

func TestNewService_RandomKeyWhenSecretMissing(t *testing.T) {
	service, err := NewService("", 0)
	require.NoError(t, err)
	assert.Len(t, service.signingKey, 32)
	assert.Equal(t, 24*time.Hour, service.tokenTTL)
}

func TestHashAndCheckPassword(t *testing.T) {
	service := testService(t)

	hash, err := service.HashPassword("manutencao2026")
	require.NoError(t, err)
	assert.NotEqual(t, "manutencao2026", hash)

	assert.True(t, service.CheckPassword("manutencao2026", hash))
	assert.False(t, service.CheckPassword("senha-errada", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	service := testService(t)
	user := plannerUser()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "cfernandes", claims.Username)
	assert.Equal(t, models.RolePlanner, claims.Role)
	assert.Greater(t, claims.Exp, time.Now().Unix())

	// The raw Authorization header form is accepted too.
	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)
}

func TestValidateToken_RejectsForeignSignature(t *testing.T) {
	service := testService(t)
	other, err := NewService("outra-chave", time.Hour)
	require.NoError(t, err)

	token, err := other.GenerateToken(plannerUser())
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	expired, err := NewService("chave-de-teste", time.Hour)
	require.NoError(t, err)
	// The constructor rejects non-positive TTLs, so force one to mint
	// an already-expired token.
	expired.tokenTTL = -time.Minute

	token, err := expired.GenerateToken(plannerUser())
	require.NoError(t, err)

	_, err = expired.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestExtractTokenFromHeader(t *testing.T) {
	service := testService(t)

	extracted, err := service.ExtractTokenFromHeader("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", extracted)

	for _, header := range []string{"", "abc123", "Bearer ", "Basic abc123"} {
		_, err := service.ExtractTokenFromHeader(header)
		assert.ErrorIs(t, err, ErrInvalidToken, "header %q", header)
	}
}

func TestCredentialRules(t *testing.T) {
	service := testService(t)

	assert.NoError(t, service.ValidatePassword("trocadores8"))
	err := service.ValidatePassword("curta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")

	assert.NoError(t, service.ValidateEmail("cfernandes@planta.com.br"))
	for _, email := range []string{"cfernandes", "cfernandes@", "planta.com.br"} {
		assert.Error(t, service.ValidateEmail(email), "email %q", email)
	}

	assert.NoError(t, service.ValidateUsername("jsantos"))
	assert.Error(t, service.ValidateUsername("js"))
	assert.Error(t, service.ValidateUsername(strings.Repeat("a", 51)))
}

func TestGenerateRefreshToken(t *testing.T) {
	service := testService(t)

	token, err := service.GenerateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, token, 44) // 32 random bytes, base64url

	again, err := service.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, again)
}
