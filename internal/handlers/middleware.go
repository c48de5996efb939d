package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// AuthUser is the identity carried by a verified token. Accounts live in an
// external identity service; this server only trusts its signatures.
type AuthUser struct {
	UserID   int64
	Username string
}

// Claims is the token payload this server accepts
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	jwtSecret []byte
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: []byte(jwtSecret)}
}

// RequireAuth validates the bearer token and puts the caller's identity on
// the request context. Websocket handshakes cannot set headers, so a token
// query parameter is accepted as a fallback.
func (m *Middleware) RequireAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing credentials", "", nil)
			return
		}

		user, err := m.verify(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials", "rejected token", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx), ps)
	}
}

func (m *Middleware) verify(token string) (*AuthUser, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid claims")
	}
	return &AuthUser{UserID: claims.UserID, Username: claims.Username}, nil
}

// SignToken mints a token for a user. Exposed for the development token
// endpoint and tests; production deployments verify tokens minted elsewhere
// with the shared secret.
func SignToken(secret string, userID int64, username string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserFromContext retrieves the authenticated user from the request context
func GetUserFromContext(ctx context.Context) *AuthUser {
	user, ok := ctx.Value(UserContextKey).(*AuthUser)
	if !ok {
		return nil
	}
	return user
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
