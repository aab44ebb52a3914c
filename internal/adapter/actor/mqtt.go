package actor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/berfenger/vivint2mqtt/internal/config"
	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/internal/mqtt"
	"github.com/berfenger/vivint2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *mqtt.MQTTClient
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	pendingAcks    int
	pendingReplyTo *actor.PID
	pendingError   error
	logger         *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to eventStream
		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			if event, ok := value.(domain.EntityUpdateEvent); ok {
				ctx.Send(ctx.Self(), domain.PublishEntityUpdateRequest{Event: event})
			}
		})

		// subscribe to MQTT command topic
		state.client.SubscribeToCommandTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := state.client.ParseMQTTCommand(m)
			if err == nil && cmd != nil {
				ctx.Send(ctx.Self(), ParsedCommand{Command: cmd})
			}
		}, func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishEntityUpdateRequest:
		// receive message from event bus and publish to MQTT if needed
		state.logger.Debug("mqtt@default PublishEntityUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		state.publishEntityUpdate(ctx, msg.Event, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery")
		err := state.PublishHomeAssistantDiscovery(ctx, msg)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// event2MQTTMessages maps an entity update to its MQTT messages. A light
// update fans out to the state and brightness topics. Entities the host
// can command publish retained so their state survives a host restart.
func (state *MQTTActor) event2MQTTMessages(event any) []rawMessage {
	switch msg := event.(type) {
	case domain.FloatSensorUpdateEvent:
		return []rawMessage{{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: fmt.Sprintf(fmt.Sprintf("%%.%df", msg.Decimals), msg.Value),
		}}
	case domain.TextSensorUpdateEvent:
		return []rawMessage{{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: msg.Value,
		}}
	case domain.BinarySensorUpdateEvent:
		return []rawMessage{{
			topic:   state.client.BinarySensorStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.Value),
		}}
	case domain.SwitchUpdateEvent:
		return []rawMessage{{
			topic:   state.client.SwitchStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.Value),
			retain:  true,
		}}
	case domain.LightUpdateEvent:
		return []rawMessage{{
			topic:   state.client.LightStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.On),
			retain:  true,
		}, {
			topic:   state.client.LightBrightnessStateTopic(msg.Id),
			message: fmt.Sprintf("%d", msg.Brightness),
			retain:  true,
		}}
	case domain.LockUpdateEvent:
		return []rawMessage{{
			topic:   state.client.LockStateTopic(msg.Id),
			message: lock2MQTTPayload(msg.Locked),
			retain:  true,
		}}
	case domain.CoverUpdateEvent:
		if msg.State == "" {
			return nil
		}
		return []rawMessage{{
			topic:   state.client.CoverStateTopic(msg.Id),
			message: msg.State,
			retain:  true,
		}}
	case domain.AlarmStateUpdateEvent:
		if msg.State == "" {
			return nil
		}
		return []rawMessage{{
			topic:   state.client.AlarmStateTopic(msg.Id),
			message: msg.State,
			retain:  true,
		}}
	case domain.BridgeStateUpdateEvent:
		var stringMessage string
		if msg.Value {
			stringMessage = mqtt.MQTT_PAYLOAD_ONLINE
		} else {
			stringMessage = mqtt.MQTT_PAYLOAD_OFFLINE
		}
		return []rawMessage{{
			topic:   state.client.BridgeStateTopic(),
			message: stringMessage,
		}}
	default:
		return nil
	}
}

func (state *MQTTActor) publishEntityUpdate(ctx actor.Context, event domain.EntityUpdateEvent, retain bool, replyTo *actor.PID) {
	msgs := state.event2MQTTMessages(event)
	if len(msgs) == 0 {
		if replyTo != nil {
			ctx.Send(replyTo, domain.PublishEntityUpdateResponse{})
		}
		return
	}
	state.pendingAcks = len(msgs)
	state.pendingReplyTo = replyTo
	state.pendingError = nil
	for _, msg := range msgs {
		state.logger.Sugar().Debugf("mqtt@publish: entity publish %s => %s", msg.topic, msg.message)
		state.client.Publish(msg.topic, msg.message, 1, msg.retain || retain, func(err error) {
			ctx.Send(ctx.Self(), publishResult{Error: err})
		}, 5*time.Second)
	}
	state.behavior.BecomeStacked(state.EventPublishResultReceive)
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Sugar().Debugf("mqtt@publish: message publish %s => %s", topic, payload)
	state.client.Publish(topic, payload, 1, retain, func(err error) {
		ctx.Send(ctx.Self(), publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.MessagePublishResultReceive)
}

func (state *MQTTActor) MessagePublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// EventPublishResultReceive holds the actor until every message of the
// current entity update is acked, then replies once with the first error.
func (state *MQTTActor) EventPublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
			if state.pendingError == nil {
				state.pendingError = msg.Error
			}
		}
		state.pendingAcks--
		if state.pendingAcks > 0 {
			return
		}
		if state.pendingReplyTo != nil {
			ctx.Send(state.pendingReplyTo, domain.PublishEntityUpdateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: state.pendingError,
				},
			})
		}
		state.pendingReplyTo = nil
		state.pendingError = nil
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(ctx actor.Context, msg domain.PublishDiscoveryRequest) error {
	discoveryTopic := state.config.MQTT.HADiscoveryTopic
	for i := range msg.AlarmPanels {
		m := mqtt.GenericAlarmPanelToHADiscoveryMessage(state.client, msg.AlarmPanels[i])
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoveryAlarmPanelTopic(discoveryTopic, msg.AlarmPanels[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range msg.Sensors {
		m := mqtt.GenericSensorToHADiscoveryMessage(state.client, msg.Sensors[i])
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoverySensorTopic(discoveryTopic, msg.Sensors[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range msg.BinarySensors {
		m := mqtt.GenericSensorToHADiscoveryMessage(state.client, msg.BinarySensors[i])
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoverySensorTopic(discoveryTopic, msg.BinarySensors[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range msg.Switches {
		m := mqtt.GenericSwitchToHADiscoveryMessage(state.client, msg.Switches[i])
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoverySwitchTopic(discoveryTopic, msg.Switches[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range msg.Lights {
		m := mqtt.GenericLightToHADiscoveryMessage(state.client, msg.Lights[i])
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoveryLightTopic(discoveryTopic, msg.Lights[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range msg.Locks {
		m := mqtt.GenericLockToHADiscoveryMessage(state.client, msg.Locks[i])
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoveryLockTopic(discoveryTopic, msg.Locks[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range msg.Covers {
		m := mqtt.GenericCoverToHADiscoveryMessage(state.client, msg.Covers[i])
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoveryCoverTopic(discoveryTopic, msg.Covers[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range msg.Buttons {
		m := mqtt.GenericButtonToHADiscoveryMessage(state.client, msg.Buttons[i])
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoveryButtonTopic(discoveryTopic, msg.Buttons[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	return nil
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

func lock2MQTTPayload(locked bool) string {
	if locked {
		return mqtt.MQTT_PAYLOAD_LOCKED
	} else {
		return mqtt.MQTT_PAYLOAD_UNLOCKED
	}
}

// Dummy actor
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger("mqtt", logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishEntityUpdateRequest:
		if msg.ReplyToRef != nil {
			ctx.Respond(domain.PublishEntityUpdateResponse{})
		}
	case domain.PublishMessageRequest:
		if msg.ReplyToRef != nil {
			ctx.Respond(domain.PublishMessageResponse{})
		}
	case domain.PublishDiscoveryRequest:
		if msg.ReplyToRef != nil {
			ctx.Respond(domain.PublishDiscoveryResponse{})
		}
	}
}
