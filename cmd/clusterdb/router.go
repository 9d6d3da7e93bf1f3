package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	logpkg "github.com/kailas-cloud/clusterdb/internal/logger"
	"github.com/kailas-cloud/clusterdb/internal/metrics"
	chiTransport "github.com/kailas-cloud/clusterdb/internal/transport/chi"
)

// newRouter assembles the middleware chain in front of the API routes.
// Recovery runs outermost so a panic anywhere below still answers with JSON.
func newRouter(api *chiTransport.Server, resolver chiTransport.TokenResolver, identityHeader string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(recoverJSON(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(accessLog(logger))
	r.Use(chiTransport.IdentityMiddleware(resolver, identityHeader, logger))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "RouteNotFound",
			fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "MethodNotAllowed",
			fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
	})
	api.Routes(r)
	return r
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}

func recoverJSON(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(rvr)
				}
				logger.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stacktrace"),
				)
				writeJSONError(w, http.StatusInternalServerError, domain.TagInternal, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog puts a request-scoped logger in the context and writes one
// line per request once the response is done. user_id is added by the
// identity middleware further down, so it only shows on handler logs.
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := chiMiddleware.GetReqID(r.Context())
			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}

			reqLog := logger.With(zap.String("request_id", reqID))
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logpkg.ContextWithLogger(r.Context(), reqLog)))

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqLog.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
