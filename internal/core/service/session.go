package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/berfenger/vivint2mqtt/internal/core/port"
	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

// CloudSessionControl owns the Vivint cloud session. Every login attempt
// builds a fresh account seeded with the persisted refresh token, so a
// stale handle from a previous attempt can never leak into a new session.
type CloudSessionControl struct {
	Username string
	Password string
	Tokens   port.TokenStore
	// AccountFactory overrides how cloud accounts are built, for tests.
	AccountFactory func(cfg vivint.AccountConfig) vivint.Account
	Logger         *zap.Logger

	mu           sync.Mutex
	account      vivint.Account
	loggedIn     bool
	teardown     func()
	pendingToken string
	tokenDirty   bool

	// disconnectMu serializes Disconnect so the teardown runs exactly once.
	disconnectMu sync.Mutex
}

// Login connects to the Vivint cloud. A pending MFA challenge is reported
// through vivint.ErrMfaRequired and leaves the session ready for
// VerifyMfa; it is not a failure. Credential and cloud errors are logged
// once here and propagated unchanged.
func (s *CloudSessionControl) Login(ctx context.Context, loadDevices bool, subscribeRealtime bool) error {
	s.mu.Lock()
	s.loggedIn = false
	s.mu.Unlock()
	sessionUp.Set(0)

	account := s.buildAccount(s.loadToken())
	s.mu.Lock()
	s.account = account
	s.mu.Unlock()

	err := account.Connect(ctx, loadDevices, subscribeRealtime)
	switch {
	case err == nil:
	case errors.Is(err, vivint.ErrMfaRequired):
		mfaChallenges.Inc()
		return err
	case vivint.IsAuthenticationError(err):
		s.Logger.Error("invalid vivint credentials", zap.Error(err))
		loginFailure.WithLabelValues("auth").Inc()
		return err
	case vivint.IsAPIError(err):
		s.Logger.Error("could not reach the vivint cloud", zap.Error(err))
		loginFailure.WithLabelValues("api").Inc()
		return err
	default:
		loginFailure.WithLabelValues("other").Inc()
		return err
	}

	s.completeLogin()
	return nil
}

// VerifyMfa answers the challenge from the last Login attempt.
func (s *CloudSessionControl) VerifyMfa(ctx context.Context, code string) error {
	s.mu.Lock()
	account := s.account
	s.mu.Unlock()
	if account == nil {
		return vivint.ErrNotConnected
	}

	if err := account.VerifyMfa(ctx, code); err != nil {
		return err
	}
	s.completeLogin()
	return nil
}

// Disconnect closes the session. The first call runs the registered
// teardown exactly once; once the session is closed, further calls do
// nothing.
func (s *CloudSessionControl) Disconnect(ctx context.Context) {
	s.disconnectMu.Lock()
	defer s.disconnectMu.Unlock()

	s.mu.Lock()
	account := s.account
	teardown := s.teardown
	s.account = nil
	s.teardown = nil
	s.loggedIn = false
	s.mu.Unlock()

	if account != nil && account.Connected() {
		if err := account.Disconnect(ctx); err != nil {
			s.Logger.Warn("vivint disconnect failed", zap.Error(err))
		}
	}
	s.flushToken()
	sessionUp.Set(0)

	if teardown != nil {
		teardown()
	}
}

func (s *CloudSessionControl) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Account returns the current session handle, or nil when the session is
// closed.
func (s *CloudSessionControl) Account() vivint.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// SetTeardown registers a callback for the next Disconnect.
func (s *CloudSessionControl) SetTeardown(teardown func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown = teardown
}

func (s *CloudSessionControl) buildAccount(token string) vivint.Account {
	cfg := vivint.AccountConfig{
		Username:      s.Username,
		Password:      s.Password,
		RefreshToken:  token,
		OnTokenRotate: s.noteRotatedToken,
		Instrument:    []vivint.Instrument{{RecordTime: observeAPICall}},
	}
	if s.AccountFactory != nil {
		return s.AccountFactory(cfg)
	}
	return vivint.NewAccount(cfg)
}

// noteRotatedToken only marks the rotated token for persistence. The
// client calls it mid-request, so no I/O happens here; the token is
// written on the next lifecycle transition.
func (s *CloudSessionControl) noteRotatedToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingToken = token
	s.tokenDirty = true
}

func (s *CloudSessionControl) completeLogin() {
	s.mu.Lock()
	s.loggedIn = true
	s.mu.Unlock()
	loginSuccess.Inc()
	sessionUp.Set(1)
	s.flushToken()
}

func (s *CloudSessionControl) loadToken() string {
	if s.Tokens == nil {
		return ""
	}
	token, err := s.Tokens.Load()
	if err != nil {
		s.Logger.Warn("could not load persisted refresh token", zap.Error(err))
		return ""
	}
	return token
}

func (s *CloudSessionControl) flushToken() {
	s.mu.Lock()
	dirty := s.tokenDirty
	token := s.pendingToken
	s.tokenDirty = false
	s.mu.Unlock()

	if !dirty || s.Tokens == nil {
		return
	}
	if err := s.Tokens.Save(token); err != nil {
		s.Logger.Warn("could not persist vivint refresh token", zap.Error(err))
	}
}

// ensure interface compliance
var _ port.SessionControl = (*CloudSessionControl)(nil)
