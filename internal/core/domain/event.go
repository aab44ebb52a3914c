package domain

import "fmt"

type EntityUpdateEventMixIn struct {
	Id string
}

type EntityUpdateEvent interface {
	EntityUpdateEvent() string
	EntityId() string
}

func (e EntityUpdateEventMixIn) EntityUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e EntityUpdateEventMixIn) EntityId() string {
	return e.Id
}

type FloatSensorUpdateEvent struct {
	EntityUpdateEventMixIn
	Value    float64
	Decimals uint
}

type BinarySensorUpdateEvent struct {
	EntityUpdateEventMixIn
	Value bool
}

type TextSensorUpdateEvent struct {
	EntityUpdateEventMixIn
	Value string
}

type SwitchUpdateEvent struct {
	EntityUpdateEventMixIn
	Value bool
}

type LightUpdateEvent struct {
	EntityUpdateEventMixIn
	On bool
	// Brightness is a percentage in 0..100.
	Brightness uint8
}

type LockUpdateEvent struct {
	EntityUpdateEventMixIn
	Locked bool
}

type CoverUpdateEvent struct {
	EntityUpdateEventMixIn
	State string
}

type AlarmStateUpdateEvent struct {
	EntityUpdateEventMixIn
	State string
}

type BridgeStateUpdateEvent struct {
	EntityUpdateEventMixIn
	Value bool
}
