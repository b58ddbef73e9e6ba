// Package handler is the thin HTTP layer over the verification service.
// Transport concerns live here: JSON envelopes, cookies, redirects, CORS.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agegate/internal/platform/middleware"
	"agegate/internal/verification/models"
	"agegate/internal/verification/service"
	dErrors "agegate/pkg/domain-errors"
)

const (
	// sessionCookie carries the opaque handle binding the browser to its
	// in-flight attempt. HTTP-only: scripts have no business reading it.
	sessionCookie = "agegate_session"

	// verificationCookie carries the signed verification token. Readable
	// by storefront scripts across subdomains, which is the whole point.
	verificationCookie = "age_verification"
)

// Service is what the handler needs from the flow coordinator.
type Service interface {
	Begin(ctx context.Context, req models.StartRequest) (service.BeginResult, error)
	HandleCallback(ctx context.Context, handle string, params service.CallbackParams) (service.CallbackResult, error)
	CheckStatus(ctx context.Context, verificationID string) models.CheckResponse
	FailureRedirect() string
}

// Config carries the transport-level settings the handler needs.
type Config struct {
	// CookieDomain scopes the verification cookie across the storefront's
	// subdomains.
	CookieDomain  string
	SecureCookies bool
	// StorefrontOrigin is the CORS allow origin.
	StorefrontOrigin string
}

// Handler serves the broker's HTTP surface.
type Handler struct {
	logger *slog.Logger
	svc    Service
	cfg    Config
}

// New creates a verification Handler.
func New(svc Service, logger *slog.Logger, cfg Config) *Handler {
	return &Handler{logger: logger, svc: svc, cfg: cfg}
}

// NewRouter wires the public endpoints with the standard middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.CORS(h.cfg.StorefrontOrigin))

	h.Register(r)
	return r
}

// Register mounts the routes on an existing router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/verify/start", h.handleStart)
	r.Get("/auth/callback", h.handleCallback)
	r.Post("/api/verify/check", h.handleCheck)
	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid start request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	res, err := h.svc.Begin(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    res.Handle,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((15 * time.Minute).Seconds()),
	})

	writeJSON(w, http.StatusOK, models.StartResponse{AuthURL: res.AuthURL})
}

// handleCallback is the provider's redirect target. It always answers with a
// redirect, never a JSON body: the user is mid-navigation.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	handle := cookieValue(r, sessionCookie)
	q := r.URL.Query()
	params := service.CallbackParams{
		State:     q.Get("state"),
		Code:      q.Get("code"),
		ErrorCode: q.Get("error"),
	}

	res, err := h.svc.HandleCallback(ctx, handle, params)

	// The attempt is finished either way; drop the session handle.
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	if err != nil {
		// Failure details stay in the server logs; the browser only sees
		// the generic indicator.
		http.Redirect(w, r, h.svc.FailureRedirect(), http.StatusFound)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     verificationCookie,
		Value:    res.Token,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		HttpOnly: false,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(models.RecordTTL.Seconds()),
	})

	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid check request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	writeJSON(w, http.StatusOK, h.svc.CheckStatus(ctx, req.VerificationID))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(dErrors.CodeInternal)

	var de *dErrors.DomainError
	if errors.As(err, &de) {
		status = dErrors.ToHTTPStatus(de.Code)
		code = string(de.Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
