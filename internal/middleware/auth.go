package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName: cookie с JWT.
const CookieName = "auth_token"

// DefaultTokenTTL: срок жизни токена, если не задан явно.
const DefaultTokenTTL = time.Hour

type ctxKey int

const (
	userIDKey ctxKey = iota
	tokenKey
)

// Claims: полезная нагрузка токена.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// tokenInfo: исходный токен запроса, нужен для logout.
type tokenInfo struct {
	raw       string
	expiresAt time.Time
}

var ErrTokenRevoked = errors.New("token revoked")

// IssueToken подписывает HS256-токен для пользователя.
func IssueToken(userID, secret string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken проверяет подпись, срок и отзыв токена.
func ParseToken(raw, secret string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if IsRevoked(raw) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// SetLoginCookie выпускает токен и кладёт его в cookie. Возвращает сам токен.
func SetLoginCookie(w http.ResponseWriter, userID, secret string, ttl time.Duration) (string, error) {
	token, exp, err := IssueToken(userID, secret, ttl)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// ClearLoginCookie удаляет cookie авторизации.
func ClearLoginCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// WithAuth кладёт user_id в контекст, если запрос несёт валидный токен
// (cookie auth_token или заголовок Authorization: Bearer). Иначе запрос идёт дальше анонимно.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := ParseToken(raw, secret)
			if err != nil {
				logger.Debugw("auth token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, tokenKey, tokenInfo{raw: raw, expiresAt: claims.ExpiresAt.Time})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth отвечает 401 на запросы без пользователя в контексте.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok && uid != ""
}

// GetTokenFromContext возвращает токен запроса и срок его действия.
func GetTokenFromContext(ctx context.Context) (string, time.Time, bool) {
	ti, ok := ctx.Value(tokenKey).(tokenInfo)
	return ti.raw, ti.expiresAt, ok
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
