package port

import (
	"context"

	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

// TokenStore persists the Vivint refresh token between runs so sessions
// can resume without a password login.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// SessionControl manages the lifetime of a Vivint cloud session.
type SessionControl interface {
	Login(ctx context.Context, loadDevices bool, subscribeRealtime bool) error
	VerifyMfa(ctx context.Context, code string) error
	Disconnect(ctx context.Context)
	LoggedIn() bool
	Account() vivint.Account
	SetTeardown(teardown func())
}
