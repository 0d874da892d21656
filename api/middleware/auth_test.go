package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrgenpro/qrgen-backend/pkg/auth"
	"github.com/qrgenpro/qrgen-backend/pkg/auth/session"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "qrgen-test", ExpirationMinutes: 60}

func TestAuthRejections(t *testing.T) {
	valid := mintTestToken(t, testJWT, uuid.New(), "", time.Now())
	expired := mintTestToken(t, testJWT, uuid.New(), "", time.Now().Add(-2*time.Hour))

	cases := []struct {
		name     string
		header   string
		sessions stubSessionVerifier
		want     int
	}{
		{name: "no header", sessions: stubSessionVerifier{ok: true}, want: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic Zm9vOmJhcg==", sessions: stubSessionVerifier{ok: true}, want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer invalid", sessions: stubSessionVerifier{ok: true}, want: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, sessions: stubSessionVerifier{ok: true}, want: http.StatusUnauthorized},
		{name: "revoked session", header: "Bearer " + valid, sessions: stubSessionVerifier{ok: false}, want: http.StatusUnauthorized},
		{name: "session store down", header: "Bearer " + valid, sessions: stubSessionVerifier{err: errors.New("redis down")}, want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(testJWT, tc.sessions, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("protected handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/qr-codes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAuthPutsPrincipalInContext(t *testing.T) {
	userID := uuid.New()
	token := mintTestToken(t, testJWT, userID, "owner@example.com", time.Now())

	var (
		gotID    uuid.UUID
		gotOK    bool
		gotEmail string
	)
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserUUIDFromContext(r.Context())
		gotEmail = UserEmailFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, gotOK)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "owner@example.com", gotEmail)
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, email string, now time.Time) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, now, auth.AccessTokenPayload{
		UserID: userID,
		Email:  email,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}
