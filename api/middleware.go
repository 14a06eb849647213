package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/dispatch-api/databases"
	"github.com/linesmerrill/dispatch-api/models"
)

// TokenTTL is how long a login token stays valid
const TokenTTL = 24 * time.Hour

// ErrUnauthorized is returned for bad credentials and bad tokens
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when the caller may not act on another user
var ErrForbidden = errors.New("forbidden")

// Claims are carried by every login token. Subject is the user id.
type Claims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller of a request
type Identity struct {
	ID       string
	Username string
	Role     models.Role
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller stored by Middleware
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Auth authenticates requests with basic credentials or a bearer token
// issued at login. Bearer tokens are HS256 JWTs; validated ones are
// cached by go-guardian.
type Auth struct {
	DB     databases.UserDatabase
	Secret []byte

	authenticator auth.Authenticator
	cache         store.Cache

	mu           sync.Mutex
	revoked      map[string]time.Time
	revokedUsers map[string]time.Time
	now          func() time.Time
}

// NewAuth returns an Auth with its strategies enabled
func NewAuth(db databases.UserDatabase, secret string) *Auth {
	a := &Auth{
		DB:      db,
		Secret:  []byte(secret),
		revoked:      make(map[string]time.Time),
		revokedUsers: make(map[string]time.Time),
		now:          time.Now,
	}
	a.SetupGoGuardian()
	return a
}

// SetupGoGuardian sets up the go-guardian strategies
func (a *Auth) SetupGoGuardian() {
	a.authenticator = auth.New()
	a.cache = store.NewFIFO(context.Background(), TokenTTL)
	basicStrategy := basic.New(a.ValidateUser, a.cache)
	tokenStrategy := bearer.New(a.validateToken, a.cache)

	a.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// Middleware rejects unauthenticated requests and stores the caller's
// Identity in the request context
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		info, err := a.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "unauthorized"}`))
			return
		}
		if a.userRevoked(info.ID()) {
			// the cache does not know about RevokeUser, check the token itself
			if token, ok := BearerToken(r); ok {
				if _, err := a.ParseToken(token); err != nil {
					zap.S().Errorw("unauthorized", "url", r.URL, "error", err)
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"message": "unauthorized"}`))
					return
				}
			}
		}
		id := Identity{ID: info.ID(), Username: info.UserName()}
		if groups := info.Groups(); len(groups) > 0 {
			id.Role = models.Role(groups[0])
		}
		zap.S().Debugw("user authenticated", "username", id.Username)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// ValidateUser checks username and password against the user directory
func (a *Auth) ValidateUser(ctx context.Context, r *http.Request, username, password string) (auth.Info, error) {
	user, err := a.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return infoFor(user), nil
}

// Login returns the user matching username and password
func (a *Auth) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.DB.FindOne(ctx, bson.M{"username": username})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("no matching username found: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("failed to compare password: %w", ErrUnauthorized)
	}
	return user, nil
}

// CreateToken signs a login token for user and caches it so the next
// request carrying it skips validation
func (a *Auth) CreateToken(r *http.Request, user *models.User) (string, error) {
	now := a.now()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	tokenStrategy := a.authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, infoFor(user), r)
	return token, nil
}

// ParseToken verifies a login token and returns its claims
func (a *Auth) ParseToken(token string) (*Claims, error) {
	a.mu.Lock()
	_, revoked := a.revoked[token]
	a.mu.Unlock()
	if revoked {
		return nil, fmt.Errorf("token revoked: %w", ErrUnauthorized)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrUnauthorized)
	}

	a.mu.Lock()
	cutoff, userRevoked := a.revokedUsers[claims.Subject]
	a.mu.Unlock()
	if userRevoked && claims.IssuedAt != nil && !claims.IssuedAt.Time.After(cutoff) {
		return nil, fmt.Errorf("token issued before logout: %w", ErrUnauthorized)
	}
	return claims, nil
}

// RevokeToken drops the request's bearer token. Requests carrying it are
// rejected from then on.
func (a *Auth) RevokeToken(r *http.Request) {
	token, ok := BearerToken(r)
	if !ok {
		return
	}
	expires := a.now().Add(TokenTTL)
	if claims, err := a.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}

	a.mu.Lock()
	for t, exp := range a.revoked {
		if a.now().After(exp) {
			delete(a.revoked, t)
		}
	}
	a.revoked[token] = expires
	a.mu.Unlock()

	tokenStrategy := a.authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Revoke(tokenStrategy, token, r)
}

// RevokeUser rejects every bearer token of userID issued up to now.
// Tokens issued afterwards are unaffected.
func (a *Auth) RevokeUser(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revokedUsers[userID] = a.now()
}

func (a *Auth) userRevoked(userID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.revokedUsers[userID]
	return ok
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (a *Auth) validateToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims, err := a.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(claims.Username, claims.Subject, []string{string(claims.Role)}, nil), nil
}

func infoFor(user *models.User) auth.Info {
	return auth.NewDefaultUser(user.Username, user.ID.Hex(), []string{string(user.Role)}, nil)
}
