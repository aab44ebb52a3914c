package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/vivint2mqtt/internal/config"
	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type HADiscoveryActor struct {
	config              *config.Config
	behavior            actor.Behavior
	stash               *actorutil.Stash
	accountActor        *actor.PID
	mqttActor           *actor.PID
	accountActorHealthy bool
	mqttActorHealthy    bool
	healthyRecv         int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, accountActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:       config,
		accountActor: accountActor,
		mqttActor:    mqttActor,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check Account and MQTT actor healthy
		state.healthyRecv = 0
		state.accountActorHealthy = false
		state.mqttActorHealthy = false
		// Account Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.accountActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_ACCOUNT,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_ACCOUNT:
				state.accountActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.accountActorHealthy && state.mqttActorHealthy {
				// Ask Account GetSystemsRequest
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.accountActor, domain.GetSystemsRequest{}, 2*time.Second), func(err error) any {
					return domain.GetSystemsResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingSystemsReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Account Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingSystemsReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSystemsResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@systems: GetSystemsResponse", zap.Int("systems", len(msg.Systems)))

		var alarmPanels []domain.GenericAlarmPanel
		var sensors []domain.GenericSensor
		var binarySensors []domain.GenericSensor
		var switches []domain.GenericSwitch
		var lights []domain.GenericLight
		var locks []domain.GenericLock
		var covers []domain.GenericCover
		var buttons []domain.GenericButton

		bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
		sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

		disarmCodeRequired := state.config.Vivint.DisarmCode != ""

		for _, system := range msg.Systems {
			alarmPanels = append(alarmPanels, domain.AlarmPanelEntities(system, disarmCodeRequired)...)
			sensors = append(sensors, domain.SensorEntities(system)...)
			binarySensors = append(binarySensors, domain.BinarySensorEntities(system)...)
			switches = append(switches, domain.SwitchEntities(system)...)
			lights = append(lights, domain.LightEntities(system)...)
			locks = append(locks, domain.LockEntities(system)...)
			covers = append(covers, domain.CoverEntities(system)...)
			buttons = append(buttons, domain.ButtonEntities(system)...)
		}

		// full device info is announced once per device, every other
		// entity references it by id
		seen := map[string]bool{}
		collapse := func(device domain.Device) domain.Device {
			if seen[device.Id] {
				return domain.IdDevice(device)
			}
			seen[device.Id] = true
			return device
		}
		for i := range alarmPanels {
			alarmPanels[i].Device = collapse(alarmPanels[i].Device)
		}
		for i := range sensors {
			sensors[i].Device = collapse(sensors[i].Device)
		}
		for i := range binarySensors {
			binarySensors[i].Device = collapse(binarySensors[i].Device)
		}
		for i := range switches {
			switches[i].Device = collapse(switches[i].Device)
		}
		for i := range lights {
			lights[i].Device = collapse(lights[i].Device)
		}
		for i := range locks {
			locks[i].Device = collapse(locks[i].Device)
		}
		for i := range covers {
			covers[i].Device = collapse(covers[i].Device)
		}
		for i := range buttons {
			buttons[i].Device = collapse(buttons[i].Device)
		}

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			AlarmPanels:   alarmPanels,
			Sensors:       sensors,
			BinarySensors: binarySensors,
			Switches:      switches,
			Lights:        lights,
			Locks:         locks,
			Covers:        covers,
			Buttons:       buttons,
		})
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@systems: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}
