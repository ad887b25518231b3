package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func captureActor(got *domain.Actor, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*got, _ = GetActor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  domain.Actor
	}{
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not bearer",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer not-a-jwt",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "7", "exp": future}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "7", "exp": time.Now().Add(-time.Hour).Unix()}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non numeric subject",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "alice", "exp": future}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "user with string subject",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "7", "role": "user", "exp": future}),
			wantStatus: http.StatusNoContent,
			wantActor:  domain.Actor{UserID: 7, Role: domain.RoleUser},
		},
		{
			name:       "admin with numeric subject",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": 42, "role": "admin", "exp": future}),
			wantStatus: http.StatusNoContent,
			wantActor:  domain.Actor{UserID: 42, Role: domain.RoleAdmin},
		},
		{
			name:       "unknown role falls back to user",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "9", "role": "root", "exp": future}),
			wantStatus: http.StatusNoContent,
			wantActor:  domain.Actor{UserID: 9, Role: domain.RoleUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Actor
			var called bool
			handler := Auth(testSecret, "")(captureActor(&got, &called))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusNoContent, called)
			if called {
				assert.Equal(t, tt.wantActor, got)
			}
		})
	}
}

func TestAuth_ProfileClaims(t *testing.T) {
	var got domain.Actor
	var called bool
	handler := Auth(testSecret, "")(captureActor(&got, &called))

	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub":      "42",
		"username": "carol",
		"email":    "carol@example.com",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.True(t, called)
	assert.Equal(t, domain.Actor{
		UserID:   42,
		Role:     domain.RoleUser,
		Username: "carol",
		Email:    "carol@example.com",
	}, got)
}

func TestAuth_Issuer(t *testing.T) {
	var got domain.Actor
	var called bool
	handler := Auth(testSecret, "facility-auth")(captureActor(&got, &called))

	for _, tc := range []struct {
		iss  string
		want int
	}{
		{iss: "facility-auth", want: http.StatusNoContent},
		{iss: "someone-else", want: http.StatusUnauthorized},
	} {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "1", "iss": tc.iss})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, tc.want, rec.Code, "iss=%s", tc.iss)
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RequireAdmin(ok)

	tests := []struct {
		name  string
		actor *domain.Actor
		want  int
	}{
		{name: "anonymous", actor: nil, want: http.StatusUnauthorized},
		{name: "user", actor: &domain.Actor{UserID: 1, Role: domain.RoleUser}, want: http.StatusForbidden},
		{name: "admin", actor: &domain.Actor{UserID: 2, Role: domain.RoleAdmin}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings", nil)
			if tt.actor != nil {
				req = req.WithContext(WithActor(req.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
