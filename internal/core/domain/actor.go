package domain

import (
	"fmt"

	"github.com/asynkron/protoactor-go/actor"

	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_ACCOUNT      = "account"
	ACTOR_ID_REFRESH      = "refresh"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// session requests

type LoginRequest struct {
	ActorRequestMixIn
	LoadDevices       bool
	SubscribeRealtime bool
}

// LoginResponse reports a pending MFA challenge through MfaRequired, not
// through ResponseError: the session is fine, it just needs a code.
type LoginResponse struct {
	ActorResponseMixIn
	MfaRequired bool
}

type VerifyMfaRequest struct {
	ActorRequestMixIn
	Code string
}

type VerifyMfaResponse struct {
	ActorResponseMixIn
}

type RefreshDevicesRequest struct {
	ActorRequestMixIn
}

type RefreshDevicesResponse struct {
	ActorResponseMixIn
}

type GetSystemsRequest struct {
	ActorRequestMixIn
}

type GetSystemsResponse struct {
	ActorResponseMixIn
	Systems []*vivint.System
}

// device commands

type DeviceCommandRequest interface {
	ActorRequest
	DeviceCommand() string
}

type DeviceCommandMixIn struct {
	ActorRequestMixIn
}

func (r DeviceCommandMixIn) DeviceCommand() string {
	return fmt.Sprintf("%T", r)
}

const (
	ALARM_ACTION_DISARM   = "DISARM"
	ALARM_ACTION_ARM_HOME = "ARM_HOME"
	ALARM_ACTION_ARM_AWAY = "ARM_AWAY"
	ALARM_ACTION_TRIGGER  = "TRIGGER"
	COVER_ACTION_OPEN     = "OPEN"
	COVER_ACTION_CLOSE    = "CLOSE"
)

type AlarmCommandRequest struct {
	DeviceCommandMixIn
	PanelID  uint64
	DeviceID uint64
	Action   string
	Code     string
}

type AlarmCommandResponse struct {
	ActorResponseMixIn
}

type LockCommandRequest struct {
	DeviceCommandMixIn
	PanelID  uint64
	DeviceID uint64
	Locked   bool
}

type LockCommandResponse struct {
	ActorResponseMixIn
}

type SwitchCommandRequest struct {
	DeviceCommandMixIn
	PanelID  uint64
	DeviceID uint64
	Key      string
	On       bool
}

type SwitchCommandResponse struct {
	ActorResponseMixIn
}

type LightCommandRequest struct {
	DeviceCommandMixIn
	PanelID  uint64
	DeviceID uint64
	On       bool
	// Brightness is a percentage, nil when the command only toggles power.
	Brightness *uint8
}

type LightCommandResponse struct {
	ActorResponseMixIn
}

type CoverCommandRequest struct {
	DeviceCommandMixIn
	PanelID  uint64
	DeviceID uint64
	Action   string
}

type CoverCommandResponse struct {
	ActorResponseMixIn
}

type ButtonCommandRequest struct {
	DeviceCommandMixIn
	PanelID  uint64
	DeviceID uint64
	Key      string
}

type ButtonCommandResponse struct {
	ActorResponseMixIn
}

// mqtt requests

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishEntityUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  EntityUpdateEvent
}

type PublishEntityUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	AlarmPanels   []GenericAlarmPanel
	Sensors       []GenericSensor
	BinarySensors []GenericSensor
	Switches      []GenericSwitch
	Lights        []GenericLight
	Locks         []GenericLock
	Covers        []GenericCover
	Buttons       []GenericButton
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

// ensure interface compliance
var _ DeviceCommandRequest = (*AlarmCommandRequest)(nil)
var _ DeviceCommandRequest = (*LockCommandRequest)(nil)
var _ DeviceCommandRequest = (*SwitchCommandRequest)(nil)
var _ DeviceCommandRequest = (*LightCommandRequest)(nil)
var _ DeviceCommandRequest = (*CoverCommandRequest)(nil)
var _ DeviceCommandRequest = (*ButtonCommandRequest)(nil)
