package actorutil

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand translates a parsed MQTT command into a
// device command request. Messages that are not commands for a known
// platform map to (nil, nil) and are ignored by the caller.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	panelId, deviceId, key, err := parseEntityId(cmd.DeviceId)
	if err != nil {
		return nil, err
	}

	switch cmd.Command {
	case mqtt.PLATFORM_ALARM_PANEL:
		action, code, _ := strings.Cut(cmd.Payload, ",")
		// the host renders a missing code as "None"
		if code == "None" {
			code = ""
		}
		switch action {
		case domain.ALARM_ACTION_DISARM, domain.ALARM_ACTION_ARM_HOME,
			domain.ALARM_ACTION_ARM_AWAY, domain.ALARM_ACTION_TRIGGER:
			return domain.AlarmCommandRequest{
				PanelID:  panelId,
				DeviceID: deviceId,
				Action:   action,
				Code:     code,
			}, nil
		}
	case mqtt.PLATFORM_LOCK:
		switch cmd.Payload {
		case mqtt.MQTT_PAYLOAD_LOCK, mqtt.MQTT_PAYLOAD_UNLOCK:
			return domain.LockCommandRequest{
				PanelID:  panelId,
				DeviceID: deviceId,
				Locked:   cmd.Payload == mqtt.MQTT_PAYLOAD_LOCK,
			}, nil
		}
	case mqtt.PLATFORM_SWITCH:
		return domain.SwitchCommandRequest{
			PanelID:  panelId,
			DeviceID: deviceId,
			Key:      key,
			On:       cmd.Payload == mqtt.MQTT_PAYLOAD_ON,
		}, nil
	case mqtt.PLATFORM_LIGHT:
		if cmd.Param == mqtt.PARAM_BRIGHTNESS {
			value, err := strconv.ParseUint(cmd.Payload, 10, 8)
			if err != nil || value > 100 {
				return nil, err
			}
			brightness := uint8(value)
			return domain.LightCommandRequest{
				PanelID:    panelId,
				DeviceID:   deviceId,
				On:         brightness > 0,
				Brightness: &brightness,
			}, nil
		}
		return domain.LightCommandRequest{
			PanelID:  panelId,
			DeviceID: deviceId,
			On:       cmd.Payload == mqtt.MQTT_PAYLOAD_ON,
		}, nil
	case mqtt.PLATFORM_COVER:
		switch cmd.Payload {
		case domain.COVER_ACTION_OPEN, domain.COVER_ACTION_CLOSE:
			return domain.CoverCommandRequest{
				PanelID:  panelId,
				DeviceID: deviceId,
				Action:   cmd.Payload,
			}, nil
		}
	case mqtt.PLATFORM_BUTTON:
		if cmd.Payload == mqtt.MQTT_PAYLOAD_PRESS && key != "" {
			return domain.ButtonCommandRequest{
				PanelID:  panelId,
				DeviceID: deviceId,
				Key:      key,
			}, nil
		}
	}
	return nil, nil
}

// parseEntityId splits a topic entity id ("100_5" or "100_12_privacy_mode")
// into its panel id, device id and optional entity key.
func parseEntityId(entityId string) (uint64, uint64, string, error) {
	parts := strings.SplitN(entityId, "_", 3)
	if len(parts) < 2 {
		return 0, 0, "", fmt.Errorf("invalid entity id %s", entityId)
	}
	panelId, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("invalid entity id %s", entityId)
	}
	deviceId, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("invalid entity id %s", entityId)
	}
	var key string
	if len(parts) == 3 {
		key = parts[2]
	}
	return panelId, deviceId, key, nil
}
