package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/api/controllers"
	"github.com/qrgenpro/qrgen-backend/internal/qrcodes"
	"github.com/qrgenpro/qrgen-backend/internal/scans"
	pkgAuth "github.com/qrgenpro/qrgen-backend/pkg/auth"
	"github.com/qrgenpro/qrgen-backend/pkg/auth/session"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

// stubCodes implements only what the routed handlers under test call.
type stubCodes struct {
	qrcodes.Service
	resolved *models.QRCode
}

func (s *stubCodes) Resolve(_ context.Context, shortCode string) (*models.QRCode, error) {
	if s.resolved == nil || s.resolved.ShortCode == nil || *s.resolved.ShortCode != shortCode {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
	}
	return s.resolved, nil
}

type stubScans struct {
	recorded []scans.Meta
	stats    *scans.Stats
	days     int
}

func (s *stubScans) Record(_ context.Context, _ *models.QRCode, meta scans.Meta) (*models.QRScan, error) {
	s.recorded = append(s.recorded, meta)
	return &models.QRScan{}, nil
}

func (s *stubScans) Stats(_ context.Context, _, qrID uuid.UUID, days int) (*scans.Stats, error) {
	s.days = days
	return &scans.Stats{QRCodeID: qrID, Days: days}, nil
}

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "qrgen", ExpirationMinutes: 10}

func newTestRouter(deps Dependencies) http.Handler {
	deps.Config = &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: testJWT,
	}
	deps.Logger = logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	return NewRouter(deps)
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(Dependencies{
		ReadyChecks: []controllers.ReadyCheck{{Name: "db", Pinger: stubPinger{}}},
	})

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestHealthReadyReportsDownDependency(t *testing.T) {
	router := newTestRouter(Dependencies{
		ReadyChecks: []controllers.ReadyCheck{
			{Name: "db", Pinger: stubPinger{}},
			{Name: "redis", Pinger: stubPinger{err: errors.New("refused")}},
		},
	})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestPlansArePublic(t *testing.T) {
	router := newTestRouter(Dependencies{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body struct {
		Data []struct {
			Tier string `json:"tier"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) == 0 {
		t.Fatal("expected plan catalog entries")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(Dependencies{})
	for _, path := range []string{"/api/v1/subscription", "/api/v1/usage", "/api/v1/qr-codes"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestRedirectRecordsScan(t *testing.T) {
	short := "Ab3dE6gH"
	dest := "https://example.com/menu"
	codes := &stubCodes{resolved: &models.QRCode{ID: uuid.New(), ShortCode: &short, DestinationURL: &dest, IsDynamic: true, IsActive: true}}
	scanSvc := &stubScans{}
	router := newTestRouter(Dependencies{QRCodes: codes, Scans: scanSvc})

	req := httptest.NewRequest(http.MethodGet, "/r/"+short, nil)
	req.Header.Set("CF-IPCountry", "de")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone)")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302 got %d", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != dest {
		t.Fatalf("expected redirect to %s got %s", dest, got)
	}
	if len(scanSvc.recorded) != 1 {
		t.Fatalf("expected one scan recorded, got %d", len(scanSvc.recorded))
	}
	meta := scanSvc.recorded[0]
	if meta.IP != "203.0.113.9" || meta.Country != "de" || !strings.Contains(meta.UserAgent, "iPhone") {
		t.Fatalf("unexpected scan meta %+v", meta)
	}
}

func TestRedirectUnknownCodeIs404(t *testing.T) {
	scanSvc := &stubScans{}
	router := newTestRouter(Dependencies{QRCodes: &stubCodes{}, Scans: scanSvc})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/r/zzzzzzzz", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if len(scanSvc.recorded) != 0 {
		t.Fatal("no scan should be recorded for an unknown code")
	}
}

func TestStatsRoutePassesDays(t *testing.T) {
	scanSvc := &stubScans{}
	router := newTestRouter(Dependencies{QRCodes: &stubCodes{}, Scans: scanSvc})
	id := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qr-codes/"+id.String()+"/stats?days=7", nil)
	req.Header.Set("Authorization", bearer(t))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if scanSvc.days != 7 {
		t.Fatalf("expected days=7, got %d", scanSvc.days)
	}

	bad := httptest.NewRequest(http.MethodGet, "/api/v1/qr-codes/"+id.String()+"/stats?days=900", nil)
	bad.Header.Set("Authorization", bearer(t))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, bad)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range days, got %d", resp.Code)
	}
}
