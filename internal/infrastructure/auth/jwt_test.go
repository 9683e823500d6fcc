package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetclinic/backend/internal/domain/identity"
	"github.com/vetclinic/backend/internal/infrastructure/config"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-32ch",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "vetclinic-backend",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()
	tenantID := uuid.New()
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateToken(GenerateTokenInput{
		TenantID: tenantID,
		UserID:   userID,
		Role:     identity.RoleVet,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "vet", claims.Role)
	assert.Equal(t, "vetclinic-backend", claims.Issuer)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID)
	assert.Equal(t, tenantID, actor.TenantID)
	assert.Equal(t, identity.RoleVet, actor.Role)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := newTestService()

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-entirely-for-testing",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "vetclinic-backend",
		})
		token, _, err := other.GenerateToken(GenerateTokenInput{
			TenantID: uuid.New(), UserID: uuid.New(), Role: identity.RoleAdmin,
		})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-for-unit-tests-32ch",
			AccessTokenExpiration: -time.Minute,
			Issuer:                "vetclinic-backend",
		})
		token, _, err := expired.GenerateToken(GenerateTokenInput{
			TenantID: uuid.New(), UserID: uuid.New(), Role: identity.RoleOwner,
		})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
			TenantID: uuid.NewString(),
			UserID:   uuid.NewString(),
			Role:     "superuser",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("test-secret-key-for-unit-tests-32ch"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("rejects missing tenant", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
			UserID: uuid.NewString(),
			Role:   "vet",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("test-secret-key-for-unit-tests-32ch"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})
}

func TestClaimsActor_InvalidUUIDs(t *testing.T) {
	claims := &Claims{TenantID: "not-a-uuid", UserID: uuid.NewString(), Role: "vet"}
	_, err := claims.Actor()
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
