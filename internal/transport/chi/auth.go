package chi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/clusterdb/internal/logger"
	"github.com/kailas-cloud/clusterdb/internal/transport/identity"
)

// exemptPaths are routes that never resolve an identity (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// TokenResolver maps a bearer token to a user id.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// IdentityMiddleware attaches the requester to the request context.
// A non-empty trustedHeader set by the gateway wins; otherwise a bearer token
// is looked up with resolver. Requests without a usable identity continue
// anonymously, and routes that need one reject them later.
// resolver may be nil when token lookup is disabled.
func IdentityMiddleware(resolver TokenResolver, trustedHeader string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if trustedHeader != "" {
				if id := strings.TrimSpace(r.Header.Get(trustedHeader)); id != "" {
					next.ServeHTTP(w, r.WithContext(withRequester(r.Context(), id)))
					return
				}
			}

			token := identity.BearerToken(r.Header.Get("Authorization"))
			if token == "" || resolver == nil {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logpkg.FromContext(r.Context(), logger).Warn("Identity lookup failed, continuing anonymously", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withRequester(r.Context(), id)))
		})
	}
}

// withRequester stores the user id and tags the request logger with it.
func withRequester(ctx context.Context, id string) context.Context {
	return logpkg.WithFields(identity.WithUserID(ctx, id), zap.String("user_id", id))
}
