package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/qrgenpro/qrgen-backend/api/responses"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

const (
	envHeader         = "X-QRGen-Env"
	readyCheckTimeout = 3 * time.Second
)

// Pinger is satisfied by every infrastructure client with a health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyCheck names one dependency probed by the readiness endpoint.
type ReadyCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency; nil pingers are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		status := map[string]string{}
		var failed bool
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				failed = true
				status[check.Name] = "down"
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": check.Name, "error": err.Error()}), "health.dependency_down")
				}
				continue
			}
			status[check.Name] = "up"
		}
		if failed {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(status))
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
