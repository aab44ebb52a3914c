package vivint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCloud struct {
	loginStatus   int
	refreshStatus int
	mfaPending    bool
	locked        bool
}

func (f *fakeCloud) serve(w http.ResponseWriter, r *http.Request) {
	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	switch r.Method + " " + r.URL.Path {
	case "POST /login":
		if f.loginStatus != 0 {
			writeJSON(f.loginStatus, errorResponse{Code: "invalid_credentials", Message: "bad password"})
			return
		}
		writeJSON(http.StatusOK, tokenResponse{AccessToken: "access", RefreshToken: "refresh-1", MfaPending: f.mfaPending})
	case "POST /session/refresh":
		if f.refreshStatus != 0 {
			writeJSON(f.refreshStatus, errorResponse{Code: "invalid_token"})
			return
		}
		writeJSON(http.StatusOK, tokenResponse{AccessToken: "access", RefreshToken: "refresh-2"})
	case "POST /session/mfa":
		var req mfaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Code != TestMfaCode {
			writeJSON(http.StatusUnauthorized, errorResponse{Code: "invalid_code"})
			return
		}
		f.mfaPending = false
		writeJSON(http.StatusOK, tokenResponse{AccessToken: "access", RefreshToken: "refresh-1"})
	case "POST /logout":
		writeJSON(http.StatusOK, struct{}{})
	case "GET /authuser":
		writeJSON(http.StatusOK, authUserResponse{Systems: []systemStubJSON{{ID: 100, Name: "Home"}}})
	case "GET /systems/100":
		writeJSON(http.StatusOK, systemResponse{System: f.systemDetail()})
	case "PUT /systems/100/locks/7":
		writeJSON(http.StatusOK, struct{}{})
	default:
		writeJSON(http.StatusNotFound, errorResponse{Code: "not_found"})
	}
}

func (f *fakeCloud) systemDetail() systemDetailJSON {
	battery := 60
	return systemDetailJSON{
		ID: 100, Name: "Home", IsAdmin: true,
		Devices: []deviceJSON{
			{ID: 1, Name: "Smart Hub", Type: DeviceTypePanel, ArmedState: ArmedStateDisarmed, CanReboot: true, Online: true},
			{ID: 7, Name: "Back Door Lock", Type: DeviceTypeDoorLock, Locked: f.locked, BatteryLevel: &battery, Online: true},
			{ID: 8, Name: "Back Door Sensor", Type: DeviceTypeWirelessSensor, ParentID: 7, Online: true},
		},
	}
}

func testCloudAccount(t *testing.T, cloud *fakeCloud, refreshToken string) *CloudAccount {
	server := httptest.NewServer(http.HandlerFunc(cloud.serve))
	t.Cleanup(server.Close)
	return NewAccount(AccountConfig{
		Username:     "user@example.com",
		Password:     "secret",
		RefreshToken: refreshToken,
		BaseURL:      server.URL,
	})
}

func TestConnectLoadsDevices(t *testing.T) {
	assert := assert.New(t)
	account := testCloudAccount(t, &fakeCloud{}, "")

	err := account.Connect(context.Background(), true, false)
	assert.NoError(err)
	assert.True(account.Connected())
	assert.Equal("refresh-1", account.RefreshToken())

	systems := account.Systems()
	assert.Len(systems, 1)
	assert.Len(systems[0].Devices, 3)

	sensor := account.FindDevice(100, 8)
	assert.NotNil(sensor)
	assert.True(sensor.IsSubdevice())
	assert.EqualValues(7, sensor.Parent.ID)
	assert.Equal("Back Door Lock", sensor.Parent.Name)
}

func TestConnectMfaRequired(t *testing.T) {
	assert := assert.New(t)
	account := testCloudAccount(t, &fakeCloud{mfaPending: true}, "")

	err := account.Connect(context.Background(), true, false)
	assert.ErrorIs(err, ErrMfaRequired)
	assert.False(account.Connected())

	err = account.VerifyMfa(context.Background(), TestMfaCode)
	assert.NoError(err)
	assert.True(account.Connected())
	assert.Len(account.Systems(), 1)
}

func TestConnectAuthFailure(t *testing.T) {
	assert := assert.New(t)
	account := testCloudAccount(t, &fakeCloud{loginStatus: http.StatusUnauthorized}, "")

	err := account.Connect(context.Background(), true, false)
	assert.Error(err)
	assert.True(IsAuthenticationError(err))
	assert.False(errors.Is(err, ErrMfaRequired))
	assert.False(account.Connected())
}

func TestConnectFallsBackToPasswordOnStaleToken(t *testing.T) {
	assert := assert.New(t)
	account := testCloudAccount(t, &fakeCloud{refreshStatus: http.StatusUnauthorized}, "stale-token")

	err := account.Connect(context.Background(), true, false)
	assert.NoError(err)
	assert.True(account.Connected())
	assert.Equal("refresh-1", account.RefreshToken())
}

func TestConnectPrefersRefreshToken(t *testing.T) {
	assert := assert.New(t)
	account := testCloudAccount(t, &fakeCloud{loginStatus: http.StatusUnauthorized}, "valid-token")

	// login would fail, so a successful connect proves the token was used
	err := account.Connect(context.Background(), true, false)
	assert.NoError(err)
	assert.Equal("refresh-2", account.RefreshToken())
}

func TestRefreshEmitsUpdateEvents(t *testing.T) {
	assert := assert.New(t)
	cloud := &fakeCloud{}
	account := testCloudAccount(t, cloud, "")
	err := account.Connect(context.Background(), true, false)
	assert.NoError(err)

	lock := account.FindDevice(100, 7)
	assert.NotNil(lock)
	assert.False(lock.Locked)

	updates := 0
	remove := lock.On(EventUpdate, func(d *Device) {
		updates++
	})
	defer remove()

	cloud.locked = true
	err = account.Refresh(context.Background())
	assert.NoError(err)
	assert.Equal(1, updates)
	assert.True(lock.Locked)

	// no change, no event
	err = account.Refresh(context.Background())
	assert.NoError(err)
	assert.Equal(1, updates)
}

func TestCommandAppliesOptimistically(t *testing.T) {
	assert := assert.New(t)
	account := testCloudAccount(t, &fakeCloud{locked: true}, "")
	err := account.Connect(context.Background(), true, false)
	assert.NoError(err)

	lock := account.FindDevice(100, 7)
	updates := 0
	remove := lock.On(EventUpdate, func(d *Device) {
		updates++
	})
	defer remove()

	err = account.SetLockState(context.Background(), 100, 7, false)
	assert.NoError(err)
	assert.False(lock.Locked)
	assert.Equal(1, updates)
}

func TestStatusToError(t *testing.T) {
	assert := assert.New(t)
	assert.Nil(statusToError(http.StatusOK, nil))
	assert.ErrorIs(statusToError(http.StatusPreconditionRequired, nil), ErrMfaRequired)
	assert.ErrorIs(statusToError(http.StatusBadRequest, []byte(`{"code":"mfa_required"}`)), ErrMfaRequired)
	assert.True(IsAuthenticationError(statusToError(http.StatusUnauthorized, nil)))
	assert.True(IsAuthenticationError(statusToError(http.StatusForbidden, nil)))
	err := statusToError(http.StatusServiceUnavailable, []byte(`{"message":"maintenance"}`))
	assert.True(IsAPIError(err))
	assert.False(IsAuthenticationError(err))
}
