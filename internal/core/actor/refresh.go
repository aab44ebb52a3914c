package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/vivint2mqtt/internal/config"
	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/internal/core/events"
	"github.com/berfenger/vivint2mqtt/internal/core/service"
	. "github.com/berfenger/vivint2mqtt/internal/util/actorutil"
	"github.com/berfenger/vivint2mqtt/pkg/vivint"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

// RefreshInterval is the fixed cadence at which the full device snapshot
// is pulled from the cloud. Realtime pushes keep entities current between
// refreshes, so the interval is not configurable.
const RefreshInterval = 300 * time.Second

// motionResetDelay is how long a camera motion signal stays on. The cloud
// only pushes the detection, never the end of motion.
var motionResetDelay = 30 * time.Second

type RefreshActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler quartz.Scheduler
	timers    *scheduler.TimerScheduler

	accountActor *actor.PID
	config       *config.Config
	eventStream  *eventstream.EventStream

	unsubscribe  []func()
	motionResets map[uint64]scheduler.CancelFunc

	logger *zap.Logger
}

type refreshTick struct {
}

type deviceUpdated struct {
	device *vivint.Device
}

type cameraMotionDetected struct {
	device *vivint.Device
}

type cameraMotionReset struct {
	device *vivint.Device
}

func NewRefreshActor(config *config.Config, accountActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *RefreshActor {
	act := &RefreshActor{
		config:       config,
		accountActor: accountActor,
		behavior:     actor.NewBehavior(),
		stash:        &Stash{},
		logger:       ActorLogger("refresh", logger),
		eventStream:  eventStream,
		motionResets: map[uint64]scheduler.CancelFunc{},
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *RefreshActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *RefreshActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("refresh@starting started")

		state.scheduler = quartz.NewStdScheduler()
		state.scheduler.Start(context.Background())
		state.timers = scheduler.NewTimerScheduler(ctx)

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.accountActor, domain.GetSystemsRequest{}, 10*time.Second), func(err error) any {
			return domain.GetSystemsResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.Become(state.WaitingSystemsReceive)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("refresh@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *RefreshActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("refresh@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_REFRESH,
			Healthy: true,
			State:   "idle",
		})
	case refreshTick:
		state.logger.Debug("refresh@default tick")
		// pull a full snapshot. realtime events only carry deltas.
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.accountActor, domain.RefreshDevicesRequest{}, 90*time.Second), func(err error) any {
			return domain.RefreshDevicesResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.BecomeStacked(state.WaitingRefreshReceive)
	case deviceUpdated:
		state.logger.Debug("refresh@default deviceUpdated", zap.Uint64("device", msg.device.ID))
		for _, ev := range events.DeviceToUpdateEvents(msg.device) {
			state.eventStream.Publish(ev)
		}
	case cameraMotionDetected:
		state.logger.Debug("refresh@default cameraMotionDetected", zap.Uint64("device", msg.device.ID))
		state.eventStream.Publish(events.CameraMotionUpdateEvent(msg.device, true))
		if cancel, ok := state.motionResets[msg.device.ID]; ok {
			cancel()
		}
		state.motionResets[msg.device.ID] = state.timers.RequestOnce(motionResetDelay, ctx.Self(), cameraMotionReset{device: msg.device})
	case cameraMotionReset:
		state.logger.Debug("refresh@default cameraMotionReset", zap.Uint64("device", msg.device.ID))
		delete(state.motionResets, msg.device.ID)
		state.eventStream.Publish(events.CameraMotionUpdateEvent(msg.device, false))
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("refresh@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *RefreshActor) WaitingSystemsReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSystemsResponse:
		if msg.HasResponseError() {
			state.logger.Error("refresh@waitingSystems GetSystemsResponse", zap.Error(msg.GetResponseError()))
			panic(fmt.Errorf("could not list systems: %w", msg.GetResponseError()))
		}
		state.logger.Debug("refresh@waitingSystems GetSystemsResponse", zap.Int("systems", len(msg.Systems)))
		for _, system := range msg.Systems {
			for _, device := range system.Devices {
				state.watchDevice(ctx, device)
			}
		}
		// publish the initial snapshot
		for _, system := range msg.Systems {
			for _, device := range system.Devices {
				for _, ev := range events.DeviceToUpdateEvents(device) {
					state.eventStream.Publish(ev)
				}
			}
		}
		if err := state.scheduleRefreshJob(ctx); err != nil {
			panic(fmt.Errorf("could not schedule refresh job: %w", err))
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("refresh@waitingSystems: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *RefreshActor) WaitingRefreshReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.RefreshDevicesResponse:
		service.CountRefresh(msg.GetResponseError())
		if msg.HasResponseError() {
			state.logger.Error("refresh@waiting RefreshDevicesResponse error", zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Debug("refresh@waiting RefreshDevicesResponse")
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("refresh@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// scheduleRefreshJob registers the fixed cadence refresh with the
// scheduler. The job only posts a tick to the mailbox, the actor does the
// work, so a slow refresh can never overlap with the next firing.
func (state *RefreshActor) scheduleRefreshJob(ctx actor.Context) error {
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	tick := job.NewFunctionJob(func(context.Context) (bool, error) {
		root.Send(self, refreshTick{})
		return true, nil
	})
	detail := quartz.NewJobDetail(tick, quartz.NewJobKey("refresh"))
	return state.scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(RefreshInterval))
}

// watchDevice forwards device events to the actor mailbox. Handlers run
// on the emitter goroutine, so they must not touch actor state directly.
func (state *RefreshActor) watchDevice(ctx actor.Context, device *vivint.Device) {
	off := device.On(vivint.EventUpdate, func(device *vivint.Device) {
		ctx.Send(ctx.Self(), deviceUpdated{device: device})
	})
	state.unsubscribe = append(state.unsubscribe, off)
	if device.Type == vivint.DeviceTypeCamera {
		off := device.On(vivint.EventMotionDetected, func(device *vivint.Device) {
			ctx.Send(ctx.Self(), cameraMotionDetected{device: device})
		})
		state.unsubscribe = append(state.unsubscribe, off)
	}
}

func (state *RefreshActor) stop() {
	state.logger.Debug("refresh stop")
	if state.scheduler != nil {
		state.scheduler.Stop()
	}
	for _, off := range state.unsubscribe {
		off()
	}
	state.unsubscribe = nil
	for id, cancel := range state.motionResets {
		cancel()
		delete(state.motionResets, id)
	}
}
