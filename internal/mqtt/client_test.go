package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/100_9/command"
	r := commandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "switch", "platform extract")
	assert.Equal(matches[0][2], "100_9", "device extract")
}

func TestPlatformCommandParseEntityKey(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/100_12_privacy_mode/command"
	r := commandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "switch", "platform extract")
	assert.Equal(matches[0][2], "100_12_privacy_mode", "device extract")
}

func TestAlarmPanelCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/alarm_control_panel/100_1/command"
	r := commandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "alarm_control_panel", "platform extract")
	assert.Equal(matches[0][2], "100_1", "device extract")
}

func TestPlatformCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/100_9/state"
	r := commandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestUnknownPlatformCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/vacuum/100_9/command"
	r := commandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestBrightnessCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/light/100_10/brightness/set"
	r := brightnessCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "100_10", "light extract")
}

func TestBrightnessCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/light/100_10/command"
	r := brightnessCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}
