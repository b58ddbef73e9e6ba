// Package service implements the age-verification flow coordinator. One
// attempt moves NEW -> AWAITING_CALLBACK on Begin, then to VERIFIED_RECORDED
// on a successful callback or FAILED on any rejection or provider fault.
// Both end states are terminal; retry is a user-initiated action.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agegate/internal/kennitala"
	"agegate/internal/oidc"
	"agegate/internal/platform/metrics"
	"agegate/internal/verification/models"
	"agegate/internal/verification/session"
	"agegate/internal/verification/store"
	"agegate/internal/verification/token"
	dErrors "agegate/pkg/domain-errors"
	"agegate/pkg/platform/sentinel"
)

// Provider is the identity-provider collaborator. Exchange returns the
// claims and the nonce observed in the verified ID token; mismatch handling
// stays with the coordinator.
type Provider interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (oidc.Identity, string, error)
}

// Service coordinates sessions, the provider round-trip, age computation,
// and record storage.
type Service struct {
	provider   Provider
	sessions   *session.Manager
	records    store.Store
	tokens     *token.Issuer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	minimumAge int
	storefront string
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the coordinator.
func New(
	provider Provider,
	sessions *session.Manager,
	records store.Store,
	tokens *token.Issuer,
	logger *slog.Logger,
	m *metrics.Metrics,
	minimumAge int,
	storefrontURL string,
	opts ...Option,
) *Service {
	s := &Service{
		provider:   provider,
		sessions:   sessions,
		records:    records,
		tokens:     tokens,
		logger:     logger,
		metrics:    m,
		minimumAge: minimumAge,
		storefront: storefrontURL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginResult carries the authorization URL and the session handle the
// transport layer must hand to the browser.
type BeginResult struct {
	AuthURL string
	Handle  string
}

// Begin starts a verification attempt. At least one of the correlation
// identifiers must be present; nothing is stored otherwise.
func (s *Service) Begin(ctx context.Context, req models.StartRequest) (BeginResult, error) {
	if req.CustomerID == "" && req.CheckoutToken == "" {
		return BeginResult{}, dErrors.New(dErrors.CodeBadRequest, "customer id or checkout token required")
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.storefront + "/cart"
	}

	handle, sc, err := s.sessions.Begin(ctx, req.CustomerID, req.CheckoutToken, returnURL, s.now())
	if err != nil {
		return BeginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start verification")
	}

	s.metrics.VerificationsStarted.Inc()
	s.logger.InfoContext(ctx, "verification started",
		"customer_id", req.CustomerID,
		"checkout_token", req.CheckoutToken,
	)

	return BeginResult{
		AuthURL: s.provider.AuthCodeURL(sc.State, sc.Nonce),
		Handle:  handle,
	}, nil
}

// CallbackParams are the provider-defined query parameters of the redirect.
type CallbackParams struct {
	State     string
	Code      string
	ErrorCode string
}

// CallbackResult is a completed verification: the signed client token and
// where to send the user next.
type CallbackResult struct {
	VerificationID string
	Token          string
	Verified       bool
	RedirectURL    string
}

// HandleCallback consumes the provider redirect. Every failure path is
// logged and reported to the handler as an error; no partial record is ever
// written. Record creation happens only after claim retrieval and age
// computation both succeed.
func (s *Service) HandleCallback(ctx context.Context, handle string, params CallbackParams) (CallbackResult, error) {
	now := s.now()

	if params.ErrorCode != "" {
		s.metrics.VerificationsFailed.Inc()
		s.logger.WarnContext(ctx, "provider reported error on callback", "error_code", params.ErrorCode)
		return CallbackResult{}, dErrors.New(dErrors.CodeProvider, "identity provider rejected the attempt")
	}
	if params.Code == "" {
		s.metrics.VerificationsFailed.Inc()
		return CallbackResult{}, dErrors.New(dErrors.CodeProvider, "callback missing authorization code")
	}

	// Turn away forged or replayed callbacks before spending a provider
	// round-trip. The nonce can only be observed after the exchange, so
	// this gate covers handle, expiry, and state.
	if err := s.sessions.Peek(ctx, handle, params.State, now); err != nil {
		s.metrics.VerificationsFailed.Inc()
		s.logger.WarnContext(ctx, "callback rejected", "error", err.Error())
		return CallbackResult{}, dErrors.Wrap(err, dErrors.CodeRejected, "verification session rejected")
	}

	identity, observedNonce, err := s.provider.Exchange(ctx, params.Code)
	if err != nil {
		s.metrics.VerificationsFailed.Inc()
		s.logger.ErrorContext(ctx, "token exchange failed", "error", err.Error())
		return CallbackResult{}, dErrors.Wrap(err, dErrors.CodeProvider, "token exchange failed")
	}

	sc, err := s.sessions.Complete(ctx, handle, params.State, observedNonce, now)
	if err != nil {
		s.metrics.VerificationsFailed.Inc()
		s.logger.WarnContext(ctx, "session completion rejected", "error", err.Error())
		return CallbackResult{}, dErrors.Wrap(err, dErrors.CodeRejected, "verification session rejected")
	}

	if identity.NationalID == "" {
		s.metrics.VerificationsFailed.Inc()
		s.logger.ErrorContext(ctx, "provider claims missing national identifier")
		return CallbackResult{}, dErrors.New(dErrors.CodeProvider, "national identifier claim missing")
	}

	age, err := kennitala.Age(identity.NationalID, now)
	if err != nil {
		s.metrics.VerificationsFailed.Inc()
		s.logger.ErrorContext(ctx, "national identifier did not parse", "error", err.Error())
		return CallbackResult{}, dErrors.Wrap(err, dErrors.CodeProvider, "national identifier unusable")
	}

	verified := age >= s.minimumAge

	id, err := s.records.Put(ctx, models.Record{
		Verified:      verified,
		Age:           age,
		CreatedAt:     now,
		CustomerID:    sc.CustomerID,
		CheckoutToken: sc.CheckoutToken,
	})
	if err != nil {
		s.metrics.VerificationsFailed.Inc()
		s.logger.ErrorContext(ctx, "failed to store verification record", "error", err.Error())
		return CallbackResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification")
	}

	signed, err := s.tokens.Issue(id, now)
	if err != nil {
		s.metrics.VerificationsFailed.Inc()
		s.logger.ErrorContext(ctx, "failed to issue verification token", "error", err.Error())
		return CallbackResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue verification token")
	}

	s.metrics.VerificationsCompleted.Inc()
	s.logger.InfoContext(ctx, "verification recorded",
		"verified", verified,
		"customer_id", sc.CustomerID,
		"checkout_token", sc.CheckoutToken,
	)

	return CallbackResult{
		VerificationID: id,
		Token:          signed,
		Verified:       verified,
		RedirectURL:    sc.ReturnURL,
	}, nil
}

// CheckStatus resolves a client-held token (or raw record id) to the stored
// outcome. Unknown, expired, and malformed inputs are all the same negative
// answer; the caller cannot distinguish "never verified" from "expired".
func (s *Service) CheckStatus(ctx context.Context, verificationID string) models.CheckResponse {
	s.metrics.StatusChecks.Inc()
	if verificationID == "" {
		return models.CheckResponse{Verified: false}
	}

	now := s.now()

	id := verificationID
	if parsed, err := s.tokens.Parse(verificationID, now); err == nil {
		id = parsed
	}

	record, err := s.records.Get(ctx, id, now)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "verification lookup failed", "error", err.Error())
		}
		return models.CheckResponse{Verified: false}
	}

	return models.CheckResponse{Verified: record.Verified, Age: record.Age}
}

// FailureRedirect is where users land when an attempt is abandoned. The
// indicator is generic on purpose; it never reveals which check failed.
func (s *Service) FailureRedirect() string {
	return s.storefront + "?error=verification_failed"
}
