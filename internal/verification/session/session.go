// Package session tracks in-flight authorization attempts. Each attempt
// binds single-use anti-forgery values (state, nonce) and the originating
// checkout identifiers to an opaque, server-issued handle. How the handle
// travels (cookie, header, bearer token) is a transport concern that lives
// with the HTTP layer.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRejected is the single failure mode for Complete. A missing context, an
// expired context, a replayed completion, and a state or nonce mismatch all
// look identical to the caller so a forger learns nothing about which check
// failed.
var ErrRejected = errors.New("session rejected")

// AttemptTTL bounds how long a started attempt may wait for its callback.
const AttemptTTL = 15 * time.Minute

const tokenBytes = 32

// Context is the scratch state for one authorization attempt.
type Context struct {
	State         string
	Nonce         string
	CustomerID    string
	CheckoutToken string
	ReturnURL     string
	CreatedAt     time.Time
}

// Manager stores attempt contexts keyed by handle. Contention is negligible
// (one context per in-flight attempt) so a single lock suffices.
type Manager struct {
	mu       sync.Mutex
	contexts map[string]Context
}

func NewManager() *Manager {
	return &Manager{contexts: make(map[string]Context)}
}

// Begin creates a context with fresh state and nonce and returns the handle
// that the callback must present.
func (m *Manager) Begin(_ context.Context, customerID, checkoutToken, returnURL string, now time.Time) (string, Context, error) {
	handle, err := newToken()
	if err != nil {
		return "", Context{}, err
	}
	state, err := newToken()
	if err != nil {
		return "", Context{}, err
	}
	nonce, err := newToken()
	if err != nil {
		return "", Context{}, err
	}

	sc := Context{
		State:         state,
		Nonce:         nonce,
		CustomerID:    customerID,
		CheckoutToken: checkoutToken,
		ReturnURL:     returnURL,
		CreatedAt:     now,
	}

	m.mu.Lock()
	m.contexts[handle] = sc
	m.mu.Unlock()

	return handle, sc, nil
}

// Peek validates that a context exists for handle, has not expired, and that
// observedState matches, without consuming it. The coordinator runs this
// before spending a round-trip on the identity provider: the nonce can only
// be observed after the token exchange, but a forged or replayed callback
// must be turned away before any provider contact.
func (m *Manager) Peek(_ context.Context, handle, observedState string, now time.Time) error {
	m.mu.Lock()
	sc, ok := m.contexts[handle]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no context for handle: %w", ErrRejected)
	}
	if now.Sub(sc.CreatedAt) >= AttemptTTL {
		return fmt.Errorf("attempt expired: %w", ErrRejected)
	}
	if !hmac.Equal([]byte(sc.State), []byte(observedState)) {
		return fmt.Errorf("anti-forgery mismatch: %w", ErrRejected)
	}
	return nil
}

// Complete consumes the context for handle. The context is removed on every
// completion attempt, matching or not: state and nonce are single-use, so a
// mismatch burns the attempt and the user starts over. Comparison is
// constant-time and must match bit-for-bit.
func (m *Manager) Complete(_ context.Context, handle, observedState, observedNonce string, now time.Time) (Context, error) {
	m.mu.Lock()
	sc, ok := m.contexts[handle]
	if ok {
		delete(m.contexts, handle)
	}
	m.mu.Unlock()

	if !ok {
		return Context{}, fmt.Errorf("no context for handle: %w", ErrRejected)
	}
	if now.Sub(sc.CreatedAt) >= AttemptTTL {
		return Context{}, fmt.Errorf("attempt expired: %w", ErrRejected)
	}

	stateOK := hmac.Equal([]byte(sc.State), []byte(observedState))
	nonceOK := hmac.Equal([]byte(sc.Nonce), []byte(observedNonce))
	if !stateOK || !nonceOK {
		return Context{}, fmt.Errorf("anti-forgery mismatch: %w", ErrRejected)
	}

	return sc, nil
}

// Len reports the number of stored contexts. Test helper.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contexts)
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
