package middleware

import (
	"net/http"

	"github.com/qrgenpro/qrgen-backend/api/responses"
	pkgAuth "github.com/qrgenpro/qrgen-backend/pkg/auth"
	"github.com/qrgenpro/qrgen-backend/pkg/auth/session"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

// Auth requires a valid access token whose session is still live in Redis, so a
// logout or refresh takes effect before the JWT itself expires.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(err error) {
				responses.WriteError(ctx, logg, w, err)
			}

			token, err := pkgAuth.BearerToken(r)
			if err != nil {
				reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				reject(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "token has no session"))
				return
			}
			if sessions != nil {
				live, err := sessions.HasSession(ctx, claims.ID)
				switch {
				case err != nil:
					reject(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session lookup failed"))
					return
				case !live:
					reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired or revoked"))
					return
				}
			}

			ctx = withPrincipal(ctx, claims.UserID, claims.Email)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
