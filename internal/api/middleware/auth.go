package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	roleKey     contextKey = "role"
	usernameKey contextKey = "username"
	emailKey    contextKey = "email"

	bearerPrefix = "Bearer "

	msgMissingToken = "требуется bearer токен"
	msgInvalidToken = "недействительный токен"
	msgForbidden    = "недостаточно прав"
)

var (
	// ErrInvalidSubject возвращается, если claim sub не является положительным числом
	ErrInvalidSubject = errors.New("middleware: invalid token subject")
)

// Auth проверяет bearer токен (HMAC) и кладет user id и роль в контекст запроса.
// Пустой issuer отключает проверку claim iss.
func Auth(secret, issuer string) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				respondError(w, http.StatusUnauthorized, msgMissingToken)
				return
			}

			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(strings.TrimPrefix(header, bearerPrefix), claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				respondError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			userID, err := subjectToUserID(claims["sub"])
			if err != nil {
				respondError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			role := domain.RoleUser
			if v, ok := claims["role"].(string); ok && domain.Role(v) == domain.RoleAdmin {
				role = domain.RoleAdmin
			}

			username, _ := claims["username"].(string)
			email, _ := claims["email"].(string)

			ctx := WithActor(r.Context(), domain.Actor{
				UserID:   userID,
				Role:     role,
				Username: username,
				Email:    email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает только администраторов. Должен стоять после Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, msgMissingToken)
			return
		}
		if !actor.IsAdmin() {
			respondError(w, http.StatusForbidden, msgForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID возвращает id пользователя, установленный Auth
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// GetActor возвращает пользователя и его роль
func GetActor(ctx context.Context) (domain.Actor, bool) {
	userID, ok := GetUserID(ctx)
	if !ok {
		return domain.Actor{}, false
	}
	role, ok := ctx.Value(roleKey).(domain.Role)
	if !ok {
		role = domain.RoleUser
	}
	username, _ := ctx.Value(usernameKey).(string)
	email, _ := ctx.Value(emailKey).(string)
	return domain.Actor{UserID: userID, Role: role, Username: username, Email: email}, true
}

// WithActor кладет пользователя в контекст
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	ctx = context.WithValue(ctx, userIDKey, actor.UserID)
	ctx = context.WithValue(ctx, roleKey, actor.Role)
	ctx = context.WithValue(ctx, usernameKey, actor.Username)
	return context.WithValue(ctx, emailKey, actor.Email)
}

// sub по RFC 7519 строка, но часть выпускающих сервисов кладет число
func subjectToUserID(sub interface{}) (int64, error) {
	var id int64
	switch v := sub.(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidSubject, err)
		}
		id = parsed
	case float64:
		if v != float64(int64(v)) {
			return 0, ErrInvalidSubject
		}
		id = int64(v)
	default:
		return 0, ErrInvalidSubject
	}
	if id <= 0 {
		return 0, ErrInvalidSubject
	}
	return id, nil
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
