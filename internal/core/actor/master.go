package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/vivint2mqtt/internal/adapter/actor"
	"github.com/berfenger/vivint2mqtt/internal/config"
	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	. "github.com/berfenger/vivint2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type AccountActorProvider func() *adactor.AccountActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck   healthCheckResult
	eventStream          *eventstream.EventStream
	accountActor         *actor.PID
	mqttActor            *actor.PID
	refreshActor         *actor.PID
	pendingMfaReplyTo    *actor.PID
	accountActorProvider AccountActorProvider
	mqttActorProvider    MQTTActorProvider
	logger               *zap.Logger
}

type healthCheckResult struct {
	accountActorHealthy bool
	mqttActorHealthy    bool
	refreshActorHealthy bool
	checksReceived      int
	respondTo           *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, accountActorProvider AccountActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:               config,
		behavior:             actor.NewBehavior(),
		stash:                &Stash{},
		logger:               ActorLogger("master", logger),
		eventStream:          &eventstream.EventStream{},
		accountActorProvider: accountActorProvider,
		mqttActorProvider:    mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Account child
		accountActorPID, err := state.startAccountActor(ctx)
		if err != nil {
			panic(err)
		}
		state.accountActor = accountActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// login. a second factor challenge parks the bridge on the MFA
		// state instead of failing the boot.
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.accountActor, domain.LoginRequest{
			LoadDevices:       true,
			SubscribeRealtime: true,
		}, 90*time.Second), func(err error) any {
			return domain.LoginResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.Become(state.WaitingLoginReceive)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) WaitingLoginReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@login ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MASTER,
			Healthy: false,
			State:   "logging_in",
		})
	case domain.LoginResponse:
		if msg.HasResponseError() {
			state.logger.Error("master@login login failed", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		if msg.MfaRequired {
			state.logger.Warn("master@login MFA verification required, waiting for code")
			state.behavior.Become(state.WaitingMfaVerificationReceive)
			state.stash.UnstashAll(ctx)
			return
		}
		state.logger.Info("master@login session established")
		state.proceedAfterLogin(ctx)
	default:
		state.logger.Debug("master@login stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) WaitingMfaVerificationReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@mfa ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MASTER,
			Healthy: false,
			State:   "waiting_mfa",
		})
	case domain.VerifyMfaRequest:
		state.logger.Debug("master@mfa VerifyMfaRequest")
		state.pendingMfaReplyTo = ctx.Sender()
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.accountActor, msg, 30*time.Second), func(err error) any {
			return domain.VerifyMfaResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	case domain.VerifyMfaResponse:
		if state.pendingMfaReplyTo != nil {
			ctx.Send(state.pendingMfaReplyTo, msg)
			state.pendingMfaReplyTo = nil
		}
		if msg.HasResponseError() {
			state.logger.Warn("master@mfa verification failed", zap.Error(msg.GetResponseError()))
			return
		}
		state.logger.Info("master@mfa code verified, session established")
		state.proceedAfterLogin(ctx)
	default:
		state.logger.Debug("master@mfa stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) proceedAfterLogin(ctx actor.Context) {

	// start Refresh child
	refreshActorPID, err := state.startRefreshActor(ctx)
	if err != nil {
		panic(err)
	}
	state.refreshActor = refreshActorPID

	// start HA Discovery
	if state.config.MQTT.HADiscoveryEnable {
		_, err := state.startHADiscoveryActor(ctx)
		if err != nil {
			panic(err)
		}
	}

	state.behavior.Become(state.DefaultReceive)
	state.stash.UnstashAll(ctx)
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Account Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.accountActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_ACCOUNT,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Refresh Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.refreshActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_REFRESH,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.VerifyMfaRequest:
		// no pending challenge at this point, the account rejects it
		state.logger.Debug("master@default VerifyMfaRequest")
		ctx.RequestWithCustomSender(state.accountActor, msg, ctx.Sender())
	case adactor.ParsedCommand:
		// redirect parsedCommand to the account actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err == nil && cmd != nil {
				switch pcmd := cmd.(type) {
				case domain.AlarmCommandRequest:
					if pcmd.Action == domain.ALARM_ACTION_DISARM && state.config.Vivint.DisarmCode != "" &&
						pcmd.Code != state.config.Vivint.DisarmCode {
						state.logger.Warn("master@default disarm rejected, wrong code")
						return
					}
					ctx.Request(state.accountActor, pcmd)
				case domain.DeviceCommandRequest:
					ctx.Request(state.accountActor, pcmd)
				}
			}
		}
	case domain.AlarmCommandResponse, domain.LockCommandResponse, domain.SwitchCommandResponse,
		domain.LightCommandResponse, domain.CoverCommandResponse, domain.ButtonCommandResponse:
		if resp, ok := msg.(domain.ActorResponse); ok && resp.HasResponseError() {
			state.logger.Error("master@default device command failed", zap.Error(resp.GetResponseError()))
		}
	case *actor.Terminated:
		// if the account fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_ACCOUNT) {
			state.logger.Error("master@default account error")
			panic(errors.New("account terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_ACCOUNT {
				state.currentHealthCheck.accountActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_MQTT {
				state.currentHealthCheck.mqttActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_REFRESH {
				state.currentHealthCheck.refreshActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startAccountActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	accountProps := actor.PropsFromProducer(func() actor.Actor {
		return state.accountActorProvider()
	}, actor.WithSupervisor(supervisor))
	accountActorPID, err := ctx.SpawnNamed(accountProps, domain.ACTOR_ID_ACCOUNT)
	if err != nil {
		return nil, err
	}

	return accountActorPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startRefreshActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewAllForOneStrategy(1, 10*time.Second, decider)

	refreshProps := actor.PropsFromProducer(func() actor.Actor {
		return NewRefreshActor(&state.config, state.accountActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	refreshActorPID, err := ctx.SpawnNamed(refreshProps, domain.ACTOR_ID_REFRESH)
	if err != nil {
		return nil, err
	}

	return refreshActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.accountActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *healthCheckResult) reset() {
	state.accountActorHealthy = false
	state.mqttActorHealthy = false
	state.refreshActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 3
}

func (state *healthCheckResult) allHealthy() bool {
	return state.accountActorHealthy && state.mqttActorHealthy && state.refreshActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	st := "running"
	if !state.allHealthy() {
		st = "degraded"
	}
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   st,
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
