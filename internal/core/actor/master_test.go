package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/berfenger/vivint2mqtt/internal/adapter/actor"
	"github.com/berfenger/vivint2mqtt/internal/config"
	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/internal/core/service"
	"github.com/berfenger/vivint2mqtt/internal/mqtt"
	"github.com/berfenger/vivint2mqtt/internal/util"
	"github.com/berfenger/vivint2mqtt/pkg/vivint"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testMasterProviders(cfg *config.Config, account *vivint.TestAccount, logger *zap.Logger) (AccountActorProvider, MQTTActorProvider) {
	session := &service.CloudSessionControl{
		Username: cfg.Vivint.Username,
		Password: cfg.Vivint.Password,
		AccountFactory: func(accountConfig vivint.AccountConfig) vivint.Account {
			return account
		},
		Logger: logger,
	}
	accountProvider := func() *adactor.AccountActor {
		return adactor.NewAccountActor(session, logger)
	}
	mqttProvider := func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewTestMQTTActor(cfg, es, logger)
	}
	return accountProvider, mqttProvider
}

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	account, err := vivint.CreateTestAccount()
	if err != nil {
		t.Error(err)
		return
	}

	accountProvider, mqttProvider := testMasterProviders(&cfg, account, logger)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, accountProvider, mqttProvider, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.True(t, healthResp.Healthy, "healthy is true")
	assert.Equal(t, "running", healthResp.State, "state is running")

	// a command from the broker side reaches the cloud device
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "100_7",
		Command:  mqtt.PLATFORM_LOCK,
		Payload:  mqtt.MQTT_PAYLOAD_UNLOCK,
	}})

	time.Sleep(1 * time.Second)

	device := account.FindDevice(100, 7)
	if assert.NotNil(t, device, "lock device") {
		assert.False(t, device.Locked, "lock should be unlocked")
	}

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorMfaAndDisarmCode(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	cfg.Vivint.DisarmCode = "9999"
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	account, err := vivint.CreateTestAccount()
	if err != nil {
		t.Error(err)
		return
	}
	account.RequireMfa = true

	accountProvider, mqttProvider := testMasterProviders(&cfg, account, logger)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, accountProvider, mqttProvider, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.False(t, healthResp.Healthy, "healthy is false while waiting for mfa")
	assert.Equal(t, "waiting_mfa", healthResp.State, "state is waiting_mfa")

	// wrong code keeps the challenge open
	res, err = context.RequestFuture(pid, domain.VerifyMfaRequest{Code: "000000"}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	verifyResp, ok := res.(domain.VerifyMfaResponse)
	assert.True(t, ok)
	assert.True(t, verifyResp.HasResponseError(), "wrong code should fail")

	// right code completes the login
	res, err = context.RequestFuture(pid, domain.VerifyMfaRequest{Code: vivint.TestMfaCode}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	verifyResp, ok = res.(domain.VerifyMfaResponse)
	assert.True(t, ok)
	assert.False(t, verifyResp.HasResponseError(), "right code should verify")

	time.Sleep(2 * time.Second)

	res, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok = res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy, "healthy is true after mfa")
	assert.Equal(t, "running", healthResp.State, "state is running after mfa")

	// arm away, no code required
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "100_1",
		Command:  mqtt.PLATFORM_ALARM_PANEL,
		Payload:  "ARM_AWAY,None",
	}})

	time.Sleep(1 * time.Second)

	panel := account.FindDevice(100, 1)
	if assert.NotNil(t, panel, "panel device") {
		assert.Equal(t, uint8(vivint.ArmedStateArmedAway), panel.ArmedState, "panel should be armed away")
	}

	// disarm with a wrong code is dropped
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "100_1",
		Command:  mqtt.PLATFORM_ALARM_PANEL,
		Payload:  "DISARM,1111",
	}})

	time.Sleep(1 * time.Second)

	assert.Equal(t, uint8(vivint.ArmedStateArmedAway), panel.ArmedState, "panel should still be armed")

	// disarm with the right code
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "100_1",
		Command:  mqtt.PLATFORM_ALARM_PANEL,
		Payload:  "DISARM,9999",
	}})

	time.Sleep(1 * time.Second)

	assert.Equal(t, uint8(vivint.ArmedStateDisarmed), panel.ArmedState, "panel should be disarmed")

	context.Stop(pid)

	as.Shutdown()
}
