package pin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	tokenBlacklistPrefix = "auth:token:blacklist:"
	authCookieName       = "access_token"
)

var errUnauthorized = errors.New("unauthorized")

type authClaims struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Service string `json:"service"`
	jwt.RegisteredClaims
}

// Authorizer resolves the Requester behind an HTTP request: JWT from the
// Authorization header or the session cookie, checked against the redis
// token blacklist when one is configured.
type Authorizer struct {
	jwtSecret []byte
	rdb       *redis.Client
}

func NewAuthorizer(jwtSecret []byte, rdb *redis.Client) *Authorizer {
	return &Authorizer{jwtSecret: jwtSecret, rdb: rdb}
}

func (a *Authorizer) Authorize(r *http.Request) (Requester, error) {
	tokenString, err := tokenFromRequest(r)
	if err != nil {
		return Requester{}, err
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Requester{}, errUnauthorized
	}

	if claims.ID == "" || claims.UserID == "" {
		return Requester{}, errUnauthorized
	}

	if a.rdb != nil {
		key := tokenBlacklistPrefix + claims.ID
		exists, redisErr := a.rdb.Exists(r.Context(), key).Result()
		if redisErr != nil {
			return Requester{}, redisErr
		}
		if exists > 0 {
			return Requester{}, errUnauthorized
		}
	}

	return Requester{
		UserID:      claims.UserID,
		DisplayName: claims.Name,
		Service:     claims.Service,
	}, nil
}

func tokenFromRequest(r *http.Request) (string, error) {
	if token, err := extractBearerToken(r.Header.Get("Authorization")); err == nil {
		return token, nil
	}

	if cookie, err := r.Cookie(authCookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token, nil
		}
	}

	return "", errUnauthorized
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errUnauthorized
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errUnauthorized
	}

	return token, nil
}
