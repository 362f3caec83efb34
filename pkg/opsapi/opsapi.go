// Package opsapi serves a small read-only HTTP API next to the status bot.
package opsapi

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/masahide/dayz-monitor/pkg/statusmsg"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var docsFS embed.FS

// =====================
// 設定: envconfig (prefix=OPS)
// =====================
type Config struct {
	// 空なら API は起動しない
	APIAddr string `envconfig:"API_ADDR"`

	// 例: "https://ops.example.com,https://ops2.example.com"
	OpenAPIServers []string `envconfig:"OPENAPI_SERVERS"`
	// OpenAPIServers が空のときに使う公開URL
	PublicBaseURL     string        `envconfig:"PUBLIC_BASE_URL"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	GlobalTimeout     time.Duration `envconfig:"GLOBAL_TIMEOUT" default:"30s"`

	AuthBearerToken string `envconfig:"AUTH_BEARER_TOKEN"`
	APIKey          string `envconfig:"API_KEY"`
	AllowNoAuth     bool   `envconfig:"ALLOW_NO_AUTH" default:"false"`
}

func (c Config) Enabled() bool { return c.APIAddr != "" }

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("OPS", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects an enabled API that nobody could authenticate against.
func (c Config) Validate() error {
	if !c.Enabled() || c.AllowNoAuth {
		return nil
	}
	if c.AuthBearerToken == "" && c.APIKey == "" {
		return errors.New("OPS_API_ADDR is set but neither OPS_AUTH_BEARER_TOKEN nor OPS_API_KEY is (set OPS_ALLOW_NO_AUTH=true to run open)")
	}
	return nil
}

// StatusSource is implemented by *statusmsg.Controller.
type StatusSource interface {
	Snapshot() statusmsg.Snapshot
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// =====================
// ミドルウェア
// =====================
type Middleware func(http.Handler) http.Handler

func chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func recoverMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "INTERNAL", Message: http.StatusText(http.StatusInternalServerError)}})
				log.Printf("[PANIC] %s %s: %v", r.Method, r.URL.Path, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// logMW はリクエストIDを採番してアクセスログを出す
func logMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		log.Printf("[%s] %s %s %d %s", reqID, r.Method, r.URL.Path, ww.status, time.Since(start))
	})
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func timeoutMW(d time.Duration) Middleware {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, http.StatusText(http.StatusGatewayTimeout))
	}
}

func authMW(bearerToken, apiKey string, allowNoAuth bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// docs と health は常に無認証
			if strings.HasPrefix(r.URL.Path, "/docs/") || r.URL.Path == "/health" || allowNoAuth {
				next.ServeHTTP(w, r)
				return
			}

			ok := false
			if bearerToken != "" {
				if tok, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
					ok = subtle.ConstantTimeCompare([]byte(tok), []byte(bearerToken)) == 1
				}
			}
			if !ok && apiKey != "" {
				ok = subtle.ConstantTimeCompare([]byte(r.Header.Get("X-API-Key")), []byte(apiKey)) == 1
			}
			if !ok {
				if bearerToken != "" {
					w.Header().Set("WWW-Authenticate", `Bearer realm="dayz-monitor"`)
				}
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorDetail{
					Code:    "UNAUTHORIZED",
					Message: "missing or invalid credentials",
				}})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =====================
// ルーティング
// =====================
func NewHandler(cfg Config, src StatusSource) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{OK: true})
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.Snapshot())
	})
	mux.HandleFunc("GET /docs/openapi.yaml", openapiYAMLHandler(cfg))

	return chain(mux,
		recoverMW,
		logMW,
		authMW(cfg.AuthBearerToken, cfg.APIKey, cfg.AllowNoAuth),
		timeoutMW(cfg.GlobalTimeout),
	)
}

// openapiYAMLHandler は servers を cfg かリクエストから解決して差し替えて返す
func openapiYAMLHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := docsFS.ReadFile("openapi.yaml")
		if err != nil {
			http.Error(w, fmt.Sprintf("openapi not found: %v", err), http.StatusInternalServerError)
			return
		}
		var doc map[string]any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			http.Error(w, fmt.Sprintf("openapi yaml parse error: %v", err), http.StatusInternalServerError)
			return
		}
		var servers []map[string]any
		for _, u := range resolveServers(cfg, r) {
			servers = append(servers, map[string]any{"url": u})
		}
		if len(servers) > 0 {
			doc["servers"] = servers
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			http.Error(w, fmt.Sprintf("openapi yaml marshal error: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	}
}

func resolveServers(cfg Config, r *http.Request) []string {
	var out []string
	for _, s := range cfg.OpenAPIServers {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out
	}
	if u := strings.TrimSpace(cfg.PublicBaseURL); u != "" {
		return []string{u}
	}
	scheme := "http"
	if xf := r.Header.Get("X-Forwarded-Proto"); xf != "" {
		scheme = xf
	} else if r.TLS != nil {
		scheme = "https"
	}
	return []string{scheme + "://" + r.Host}
}

// Serve runs the API until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, cfg Config, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("ops api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		return fmt.Errorf("ops api graceful shutdown failed: %w", err)
	}
	return nil
}
