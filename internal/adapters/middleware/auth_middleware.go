package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// cacheEntry stores cached JWT claims keyed by JTI (JWT ID)
type cacheEntry struct {
	claims jwt.MapClaims
	exp    int64
}

// AuthMiddleware validates RS256 tokens issued by the identity service and enforces roles
// Verified claims are cached by JTI until the token expires
type AuthMiddleware struct {
	publicKey *rsa.PublicKey
	cache     sync.Map
	// Background janitor for cache cleanup
	janitorStop chan bool
}

const CacheCleanupInterval = 10 * time.Minute

// NewAuthMiddleware creates a new JWT authentication middleware
func NewAuthMiddleware(publicKey *rsa.PublicKey) *AuthMiddleware {
	m := &AuthMiddleware{
		publicKey:   publicKey,
		janitorStop: make(chan bool),
	}

	go m.startJanitor(CacheCleanupInterval)

	return m
}

// Context keys for storing user information
type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
	TokenKey  contextKey = "token"
)

// GetClaimsFromCacheOrParse returns verified claims and the cache key (JTI) of a token
func (m *AuthMiddleware) GetClaimsFromCacheOrParse(tokenString string) (jwt.MapClaims, string, error) {
	// Peek at the JTI and expiry before paying for signature verification
	parser := new(jwt.Parser)
	unverifiedToken, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, "", err
	}

	claims, ok := unverifiedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", errors.New("invalid token claims")
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		// Tokens without a JTI are keyed by a token prefix plus subject and role
		role, _ := claims["role"].(string)
		userID, _ := claims["sub"].(string)
		jti = fmt.Sprintf("%s-%s-%s", tokenString[:min(20, len(tokenString))], role, userID)
	}

	var exp int64
	switch v := claims["exp"].(type) {
	case float64:
		exp = int64(v)
	case int64:
		exp = v
	default:
		return nil, "", errors.New("missing expiration claim")
	}

	if time.Now().Unix() > exp {
		return nil, "", errors.New("token expired")
	}

	if entry, ok := m.cache.Load(jti); ok {
		cached := entry.(cacheEntry)
		if time.Now().Unix() < cached.exp {
			return cached.claims, jti, nil
		}
		m.cache.Delete(jti)
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.publicKey, nil
	})
	if err != nil {
		return nil, "", err
	}
	if !token.Valid {
		return nil, "", jwt.ErrSignatureInvalid
	}

	verifiedClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", errors.New("invalid token claims")
	}

	m.cache.Store(jti, cacheEntry{claims: verifiedClaims, exp: exp})

	return verifiedClaims, jti, nil
}

// RequireAuth validates the bearer token and puts the user ID and normalized role in the context
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Printf("Missing Authorization header")
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			log.Printf("Invalid Authorization header format")
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}
		tokenString = strings.TrimSpace(tokenString)

		claims, jti, err := m.GetClaimsFromCacheOrParse(tokenString)
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			log.Printf("Missing or invalid 'sub' claim")
			http.Error(w, "invalid token: missing user ID", http.StatusUnauthorized)
			return
		}

		roleClaim, _ := claims["role"].(string)
		role, ok := domain.ParseRole(roleClaim)
		if !ok {
			log.Printf("Missing or unknown 'role' claim: %q", roleClaim)
			http.Error(w, "invalid token: missing role", http.StatusUnauthorized)
			return
		}

		log.Printf("Token validated - UserID: %s, Role: %s, JTI: %s (processing time: %v)", userID, role, jti, time.Since(start))

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, RoleKey, string(role))
		ctx = context.WithValue(ctx, TokenKey, tokenString)

		next(w, r.WithContext(ctx))
	}
}

// RequireAnyRole allows the request only if the caller has one of the roles
func (m *AuthMiddleware) RequireAnyRole(allowedRoles []domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetRole(r.Context())
		if !ok {
			log.Printf("Missing role in context")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		for _, allowed := range allowedRoles {
			if domain.Role(role) == allowed {
				next(w, r)
				return
			}
		}

		log.Printf("Role mismatch: required one of %v, got %s", allowedRoles, role)
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}

// startJanitor periodically cleans up expired cache entries
func (m *AuthMiddleware) startJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now().Unix()
			deleted := 0
			m.cache.Range(func(key, value interface{}) bool {
				if entry, ok := value.(cacheEntry); ok && now >= entry.exp {
					m.cache.Delete(key)
					deleted++
				}
				return true
			})
			if deleted > 0 {
				log.Printf("Token cache janitor: purged %d expired entries", deleted)
			}
		case <-m.janitorStop:
			return
		}
	}
}

// Stop stops the background janitor (for graceful shutdown)
func (m *AuthMiddleware) Stop() {
	close(m.janitorStop)
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetRole extracts role from request context
func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetToken extracts token string from request context
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// IsAdmin checks if the user in context is an Admin
func IsAdmin(ctx context.Context) bool {
	role, ok := GetRole(ctx)
	if !ok {
		return false
	}
	parsed, _ := domain.ParseRole(role)
	return parsed == domain.RoleAdmin
}

// GetRequester builds the service-level caller identity from the request context
func GetRequester(ctx context.Context) (domain.Requester, error) {
	userIDStr, ok := GetUserID(ctx)
	if !ok {
		return domain.Requester{}, errors.New("missing user ID in context")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return domain.Requester{}, fmt.Errorf("invalid user ID: %w", err)
	}
	roleStr, _ := GetRole(ctx)
	role, ok := domain.ParseRole(roleStr)
	if !ok {
		return domain.Requester{}, fmt.Errorf("unknown role %q", roleStr)
	}
	return domain.Requester{UserID: userID, Role: role}, nil
}
