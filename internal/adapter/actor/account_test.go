package actor

import (
	"testing"
	"time"

	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/internal/core/service"
	"github.com/berfenger/vivint2mqtt/internal/util/actorutil"
	"github.com/berfenger/vivint2mqtt/pkg/vivint"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testSessionControl(account *vivint.TestAccount, logger *zap.Logger) *service.CloudSessionControl {
	return &service.CloudSessionControl{
		Username: "user@example.com",
		Password: "hunter2",
		AccountFactory: func(cfg vivint.AccountConfig) vivint.Account {
			return account
		},
		Logger: logger,
	}
}

func TestLoginAccountActor(t *testing.T) {

	assert := assert.New(t)

	account, err := vivint.CreateTestAccount()
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	session := testSessionControl(account, logger)
	props := actor.PropsFromProducer(func() actor.Actor { return NewAccountActor(session, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.LoginRequest{LoadDevices: true, SubscribeRealtime: true}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	login := result.(domain.LoginResponse)

	assert.False(login.HasResponseError(), "login error")
	assert.False(login.MfaRequired, "login MfaRequired")

	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	health := result.(domain.ActorHealthResponse)

	assert.True(health.Healthy, "health Healthy")
	assert.Equal("logged_in", health.State, "health State")

	result, err = context.RequestFuture(pid, domain.GetSystemsRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	systems := result.(domain.GetSystemsResponse)

	assert.Equal(1, len(systems.Systems), "systems count")
	assert.Equal(uint64(100), systems.Systems[0].ID, "system id")
	assert.Equal(9, len(systems.Systems[0].Devices), "device count")

	context.Stop(pid)

	as.Shutdown()
}

func TestMfaLoginAccountActor(t *testing.T) {

	assert := assert.New(t)

	account, err := vivint.CreateTestAccount()
	if err != nil {
		t.Error(err)
		return
	}
	account.RequireMfa = true

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	session := testSessionControl(account, logger)
	props := actor.PropsFromProducer(func() actor.Actor { return NewAccountActor(session, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.LoginRequest{LoadDevices: true, SubscribeRealtime: true}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	login := result.(domain.LoginResponse)

	assert.False(login.HasResponseError(), "login error")
	assert.True(login.MfaRequired, "login MfaRequired")

	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	health := result.(domain.ActorHealthResponse)

	assert.False(health.Healthy, "health before verify")
	assert.Equal("logged_out", health.State, "health state before verify")

	result, err = context.RequestFuture(pid, domain.VerifyMfaRequest{Code: "000000"}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	badVerify := result.(domain.VerifyMfaResponse)

	assert.True(badVerify.HasResponseError(), "wrong code error")

	result, err = context.RequestFuture(pid, domain.VerifyMfaRequest{Code: vivint.TestMfaCode}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	verify := result.(domain.VerifyMfaResponse)

	assert.False(verify.HasResponseError(), "verify error")

	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	health = result.(domain.ActorHealthResponse)

	assert.True(health.Healthy, "health after verify")
	assert.Equal("logged_in", health.State, "health state after verify")

	context.Stop(pid)

	as.Shutdown()
}

func TestDeviceCommandsAccountActor(t *testing.T) {

	assert := assert.New(t)

	account, err := vivint.CreateTestAccount()
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	session := testSessionControl(account, logger)
	props := actor.PropsFromProducer(func() actor.Actor { return NewAccountActor(session, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	_, err = context.RequestFuture(pid, domain.LoginRequest{LoadDevices: true, SubscribeRealtime: true}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}

	result, err := context.RequestFuture(pid, domain.AlarmCommandRequest{
		PanelID: 100, DeviceID: 1, Action: domain.ALARM_ACTION_ARM_AWAY,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(result.(domain.AlarmCommandResponse).HasResponseError(), "arm away error")
	assert.Equal(uint8(vivint.ArmedStateArmedAway), account.FindDevice(100, 1).ArmedState, "panel armed state")

	result, err = context.RequestFuture(pid, domain.LockCommandRequest{
		PanelID: 100, DeviceID: 7, Locked: false,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(result.(domain.LockCommandResponse).HasResponseError(), "unlock error")
	assert.False(account.FindDevice(100, 7).Locked, "lock state")

	result, err = context.RequestFuture(pid, domain.SwitchCommandRequest{
		PanelID: 100, DeviceID: 9, On: true,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(result.(domain.SwitchCommandResponse).HasResponseError(), "switch on error")
	assert.True(account.FindDevice(100, 9).IsOn, "switch state")

	result, err = context.RequestFuture(pid, domain.SwitchCommandRequest{
		PanelID: 100, DeviceID: 12, Key: domain.SWITCH_KEY_PRIVACY_MODE, On: true,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(result.(domain.SwitchCommandResponse).HasResponseError(), "privacy mode error")
	assert.True(account.FindDevice(100, 12).PrivacyMode, "privacy mode state")

	brightness := uint8(75)
	result, err = context.RequestFuture(pid, domain.LightCommandRequest{
		PanelID: 100, DeviceID: 10, On: true, Brightness: &brightness,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(result.(domain.LightCommandResponse).HasResponseError(), "brightness error")
	assert.Equal(uint8(75), account.FindDevice(100, 10).Level, "light level")
	assert.True(account.FindDevice(100, 10).IsOn, "light on")

	result, err = context.RequestFuture(pid, domain.CoverCommandRequest{
		PanelID: 100, DeviceID: 11, Action: domain.COVER_ACTION_OPEN,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(result.(domain.CoverCommandResponse).HasResponseError(), "cover open error")
	assert.Equal(uint8(vivint.GarageDoorStateOpening), account.FindDevice(100, 11).GarageState, "garage state")

	result, err = context.RequestFuture(pid, domain.ButtonCommandRequest{
		PanelID: 100, DeviceID: 1, Key: domain.BUTTON_KEY_REBOOT,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(result.(domain.ButtonCommandResponse).HasResponseError(), "panel reboot error")

	result, err = context.RequestFuture(pid, domain.ButtonCommandRequest{
		PanelID: 100, DeviceID: 9, Key: domain.BUTTON_KEY_REBOOT,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	assert.True(result.(domain.ButtonCommandResponse).HasResponseError(), "switch reboot should fail")

	context.Stop(pid)

	as.Shutdown()
}

func TestCommandBeforeLoginAccountActor(t *testing.T) {

	assert := assert.New(t)

	account, err := vivint.CreateTestAccount()
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	session := testSessionControl(account, logger)
	props := actor.PropsFromProducer(func() actor.Actor { return NewAccountActor(session, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.LockCommandRequest{
		PanelID: 100, DeviceID: 7, Locked: true,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.LockCommandResponse)

	assert.True(resp.HasResponseError(), "command without session")
	assert.ErrorIs(resp.GetResponseError(), vivint.ErrNotConnected, "command error value")

	result, err = context.RequestFuture(pid, domain.GetSystemsRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	systems := result.(domain.GetSystemsResponse)

	assert.Equal(0, len(systems.Systems), "systems before login")

	context.Stop(pid)

	as.Shutdown()
}
