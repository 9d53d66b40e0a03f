package middleware_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IANDYI/growth-service/internal/adapters/middleware"
	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKeyPair(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return privateKey, &privateKey.PublicKey
}

func createTestToken(t *testing.T, privateKey *rsa.PrivateKey, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return tokenString
}

func validClaims(sub, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
		"jti":  uuid.NewString(),
	}
}

func TestNewAuthMiddleware(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	assert.NotNil(t, mw)
}

func TestAuthMiddleware_GetClaimsFromCacheOrParse_ValidToken(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	claims := jwt.MapClaims{
		"sub":  "user123",
		"role": "Admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"jti":  "test-jti-123",
	}
	tokenString := createTestToken(t, privateKey, claims)

	resultClaims, jti, err := mw.GetClaimsFromCacheOrParse(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "test-jti-123", jti)
	assert.Equal(t, "user123", resultClaims["sub"])
	assert.Equal(t, "Admin", resultClaims["role"])
}

func TestAuthMiddleware_GetClaimsFromCacheOrParse_CacheHit(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	tokenString := createTestToken(t, privateKey, validClaims("user123", "User"))

	claims1, jti1, err1 := mw.GetClaimsFromCacheOrParse(tokenString)
	require.NoError(t, err1)

	claims2, jti2, err2 := mw.GetClaimsFromCacheOrParse(tokenString)
	require.NoError(t, err2)

	assert.Equal(t, jti1, jti2)
	assert.Equal(t, claims1["sub"], claims2["sub"])
	assert.Equal(t, claims1["role"], claims2["role"])
}

func TestAuthMiddleware_GetClaimsFromCacheOrParse_MissingJTI(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	tokenString := createTestToken(t, privateKey, jwt.MapClaims{
		"sub":  "user123",
		"role": "Doctor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	claims, jti, err := mw.GetClaimsFromCacheOrParse(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims["sub"])
	assert.Contains(t, jti, "Doctor-user123")
}

func TestAuthMiddleware_GetClaimsFromCacheOrParse_ExpiredToken(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	claims := validClaims("user123", "Admin")
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	tokenString := createTestToken(t, privateKey, claims)

	_, _, err := mw.GetClaimsFromCacheOrParse(tokenString)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestAuthMiddleware_GetClaimsFromCacheOrParse_MissingExpiry(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	tokenString := createTestToken(t, privateKey, jwt.MapClaims{"sub": "user123", "role": "User", "jti": "no-exp"})

	_, _, err := mw.GetClaimsFromCacheOrParse(tokenString)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expiration")
}

func TestAuthMiddleware_GetClaimsFromCacheOrParse_InvalidToken(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	_, _, err := mw.GetClaimsFromCacheOrParse("invalid-token")
	assert.Error(t, err)
}

func TestAuthMiddleware_GetClaimsFromCacheOrParse_WrongKey(t *testing.T) {
	otherKey, _ := generateTestKeyPair(t)
	_, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	tokenString := createTestToken(t, otherKey, validClaims("user123", "Admin"))

	_, _, err := mw.GetClaimsFromCacheOrParse(tokenString)
	assert.Error(t, err)
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	userID := uuid.New()
	tokenString := createTestToken(t, privateKey, validClaims(userID.String(), "ADMIN"))

	called := false
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true

		id, ok := middleware.GetUserID(r.Context())
		assert.True(t, ok)
		assert.Equal(t, userID.String(), id)

		// Role claims are normalized to the canonical spelling
		role, ok := middleware.GetRole(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "Admin", role)

		token, ok := middleware.GetToken(r.Context())
		assert.True(t, ok)
		assert.Equal(t, tokenString, token)

		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestAuthMiddleware_RequireAuth_Rejections(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer  "},
		{"garbage token", "Bearer not-a-jwt"},
		{"unknown role", "Bearer " + createTestToken(t, privateKey, validClaims(uuid.NewString(), "NURSE"))},
		{"missing role", "Bearer " + createTestToken(t, privateKey, validClaims(uuid.NewString(), ""))},
		{"missing subject", "Bearer " + createTestToken(t, privateKey, validClaims("", "User"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
				t.Error("Handler should not be called")
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_RequireAnyRole(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	mw := middleware.NewAuthMiddleware(publicKey)
	defer mw.Stop()

	writers := []domain.Role{domain.RoleUser, domain.RoleAdmin}

	tests := []struct {
		role     string
		expected int
	}{
		{"User", http.StatusOK},
		{"admin", http.StatusOK},
		{"Doctor", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			tokenString := createTestToken(t, privateKey, validClaims(uuid.NewString(), tt.role))

			handler := mw.RequireAnyRole(writers, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/", nil)
			req.Header.Set("Authorization", "Bearer "+tokenString)
			w := httptest.NewRecorder()

			handler(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, "user123")
	userID, ok := middleware.GetUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user123", userID)

	_, ok = middleware.GetUserID(context.Background())
	assert.False(t, ok)
}

func TestGetRole(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RoleKey, "Doctor")
	role, ok := middleware.GetRole(ctx)
	assert.True(t, ok)
	assert.Equal(t, "Doctor", role)

	_, ok = middleware.GetRole(context.Background())
	assert.False(t, ok)
}

func TestIsAdmin(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RoleKey, "ADMIN")
	assert.True(t, middleware.IsAdmin(ctx))

	ctx2 := context.WithValue(context.Background(), middleware.RoleKey, "User")
	assert.False(t, middleware.IsAdmin(ctx2))

	assert.False(t, middleware.IsAdmin(context.Background()))
}

func TestGetRequester(t *testing.T) {
	userID := uuid.New()
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, middleware.RoleKey, "Doctor")

	requester, err := middleware.GetRequester(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, requester.UserID)
	assert.Equal(t, domain.RoleDoctor, requester.Role)
	assert.True(t, requester.IsDoctor())
}

func TestGetRequester_Errors(t *testing.T) {
	_, err := middleware.GetRequester(context.Background())
	assert.Error(t, err)

	ctx := context.WithValue(context.Background(), middleware.UserIDKey, "user123")
	ctx = context.WithValue(ctx, middleware.RoleKey, "User")
	_, err = middleware.GetRequester(ctx)
	assert.Error(t, err)

	ctx = context.WithValue(context.Background(), middleware.UserIDKey, uuid.NewString())
	ctx = context.WithValue(ctx, middleware.RoleKey, "Nurse")
	_, err = middleware.GetRequester(ctx)
	assert.Error(t, err)
}
