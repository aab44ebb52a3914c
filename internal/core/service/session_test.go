package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/berfenger/vivint2mqtt/internal/core/port"
	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

type memoryTokenStore struct {
	token string
	saves int
}

func (s *memoryTokenStore) Load() (string, error) {
	return s.token, nil
}

func (s *memoryTokenStore) Save(token string) error {
	s.token = token
	s.saves++
	return nil
}

func (s *memoryTokenStore) Clear() error {
	s.token = ""
	return nil
}

var _ port.TokenStore = (*memoryTokenStore)(nil)

// rotatingAccount hands out a new refresh token on every successful
// connect, like the real cloud does.
type rotatingAccount struct {
	*vivint.TestAccount
	rotate func(token string)
}

func (a *rotatingAccount) Connect(ctx context.Context, loadDevices, subscribeRealtime bool) error {
	if err := a.TestAccount.Connect(ctx, loadDevices, subscribeRealtime); err != nil {
		return err
	}
	a.rotate("rt_from_login")
	return nil
}

func newTestSession(account *vivint.TestAccount, tokens port.TokenStore) *CloudSessionControl {
	return &CloudSessionControl{
		Username: "user@example.com",
		Password: "hunter2",
		Tokens:   tokens,
		AccountFactory: func(cfg vivint.AccountConfig) vivint.Account {
			return account
		},
		Logger: zap.Must(zap.NewDevelopment()),
	}
}

func TestLoginMarksSessionLoggedIn(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	session := newTestSession(account, &memoryTokenStore{})

	require.NoError(session.Login(context.Background(), true, true))
	assert.True(session.LoggedIn())
	assert.Same(account, session.Account())
}

func TestLoginResetsFlagBeforeConnecting(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	session := newTestSession(account, &memoryTokenStore{})

	require.NoError(session.Login(context.Background(), true, true))
	require.True(session.LoggedIn())

	// a failed second login must leave the session logged out again
	account.FailAPI = true
	err = session.Login(context.Background(), true, true)
	require.Error(err)
	assert.True(vivint.IsAPIError(err))
	assert.False(session.LoggedIn())
}

func TestLoginMfaChallengeIsNotAFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	account.RequireMfa = true
	session := newTestSession(account, &memoryTokenStore{})

	err = session.Login(context.Background(), true, true)
	require.ErrorIs(err, vivint.ErrMfaRequired)
	assert.False(vivint.IsAuthenticationError(err))
	assert.False(session.LoggedIn())

	require.NoError(session.VerifyMfa(context.Background(), vivint.TestMfaCode))
	assert.True(session.LoggedIn())
}

func TestLoginAuthFailureIsNotAMfaChallenge(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	account.FailAuth = true
	session := newTestSession(account, &memoryTokenStore{})

	err = session.Login(context.Background(), true, true)
	require.Error(err)
	assert.True(vivint.IsAuthenticationError(err))
	assert.False(errors.Is(err, vivint.ErrMfaRequired))
	assert.False(session.LoggedIn())
}

func TestVerifyMfaRejectsBadCode(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	account.RequireMfa = true
	session := newTestSession(account, &memoryTokenStore{})

	err = session.Login(context.Background(), true, true)
	require.ErrorIs(err, vivint.ErrMfaRequired)

	require.Error(session.VerifyMfa(context.Background(), "000000"))
	assert.False(session.LoggedIn())
}

func TestVerifyMfaWithoutSession(t *testing.T) {
	require := require.New(t)

	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	session := newTestSession(account, &memoryTokenStore{})

	require.ErrorIs(session.VerifyMfa(context.Background(), vivint.TestMfaCode), vivint.ErrNotConnected)
}

func TestDisconnectRunsTeardownExactlyOnce(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	session := newTestSession(account, &memoryTokenStore{})
	require.NoError(session.Login(context.Background(), true, true))

	calls := 0
	session.SetTeardown(func() { calls++ })

	session.Disconnect(context.Background())
	assert.Equal(1, calls)
	assert.False(session.LoggedIn())
	assert.Nil(session.Account())
	assert.Equal(1, account.DisconnectCount())

	session.Disconnect(context.Background())
	assert.Equal(1, calls)
	assert.Equal(1, account.DisconnectCount())
}

func TestDisconnectSkipsHandleWhenNeverConnected(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	account.FailAuth = true
	session := newTestSession(account, &memoryTokenStore{})
	require.Error(session.Login(context.Background(), true, true))

	calls := 0
	session.SetTeardown(func() { calls++ })

	session.Disconnect(context.Background())
	assert.Equal(1, calls)
	assert.Equal(0, account.DisconnectCount())
}

func TestLoginSeedsAccountWithPersistedToken(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var got vivint.AccountConfig
	session := &CloudSessionControl{
		Username: "user@example.com",
		Password: "hunter2",
		Tokens:   &memoryTokenStore{token: "rt_persisted"},
		AccountFactory: func(cfg vivint.AccountConfig) vivint.Account {
			got = cfg
			account, _ := vivint.CreateTestAccount()
			return account
		},
		Logger: zap.Must(zap.NewDevelopment()),
	}

	require.NoError(session.Login(context.Background(), false, false))
	assert.Equal("rt_persisted", got.RefreshToken)
	assert.Equal("user@example.com", got.Username)
	assert.NotNil(got.OnTokenRotate)
}

func TestLoginPersistsRotatedToken(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	store := &memoryTokenStore{token: "rt_stale"}
	session := &CloudSessionControl{
		Username: "user@example.com",
		Password: "hunter2",
		Tokens:   store,
		AccountFactory: func(cfg vivint.AccountConfig) vivint.Account {
			account, _ := vivint.CreateTestAccount()
			return &rotatingAccount{TestAccount: account, rotate: cfg.OnTokenRotate}
		},
		Logger: zap.Must(zap.NewDevelopment()),
	}

	require.NoError(session.Login(context.Background(), false, false))
	assert.Equal("rt_from_login", store.token)
}

func TestTokenRotationHookOnlySetsAFlag(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	store := &memoryTokenStore{}
	var rotate func(token string)
	account, err := vivint.CreateTestAccount()
	require.NoError(err)
	session := &CloudSessionControl{
		Username: "user@example.com",
		Password: "hunter2",
		Tokens:   store,
		AccountFactory: func(cfg vivint.AccountConfig) vivint.Account {
			rotate = cfg.OnTokenRotate
			return account
		},
		Logger: zap.Must(zap.NewDevelopment()),
	}
	require.NoError(session.Login(context.Background(), false, false))

	// the hook itself never touches the store
	rotate("rt_rotated")
	assert.Equal(0, store.saves)
	assert.Equal("", store.token)

	// the token lands on the next lifecycle transition
	session.Disconnect(context.Background())
	assert.Equal(1, store.saves)
	assert.Equal("rt_rotated", store.token)
}
