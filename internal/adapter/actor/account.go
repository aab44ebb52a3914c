package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/internal/core/port"
	"github.com/berfenger/vivint2mqtt/internal/util/actorutil"
	"github.com/berfenger/vivint2mqtt/pkg/vivint"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

type AccountActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	session  port.SessionControl
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewAccountActor(session port.SessionControl, logger *zap.Logger) *AccountActor {
	act := &AccountActor{
		session:  session,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_ACCOUNT, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *AccountActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *AccountActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("account@default: ActorHealthRequest")
		ctx.Respond(state.healthResponse())
	case domain.LoginRequest:
		state.logger.Debug("account@default: LoginRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.login(msg.LoadDevices, msg.SubscribeRealtime)),
			mapTaskResult[domain.LoginResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.LoginResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(60 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case domain.VerifyMfaRequest:
		state.logger.Debug("account@default: VerifyMfaRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.verifyMfa(msg.Code)),
			mapTaskResult[domain.VerifyMfaResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.VerifyMfaResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(30 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case domain.RefreshDevicesRequest:
		state.logger.Debug("account@default: RefreshDevicesRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.refreshDevices),
			mapTaskResult[domain.RefreshDevicesResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.RefreshDevicesResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(60 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case domain.GetSystemsRequest:
		state.logger.Debug("account@default: GetSystemsRequest")
		var systems []*vivint.System
		if account := state.session.Account(); account != nil {
			systems = account.Systems()
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.GetSystemsResponse{
			Systems: systems,
		})
	case domain.AlarmCommandRequest:
		state.logger.Debug("account@default: AlarmCommandRequest", zap.String("action", msg.Action))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.alarmCommand(msg)),
			mapTaskResult[domain.AlarmCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.AlarmCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(15 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case domain.LockCommandRequest:
		state.logger.Debug("account@default: LockCommandRequest", zap.Bool("locked", msg.Locked))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.lockCommand(msg)),
			mapTaskResult[domain.LockCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.LockCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(15 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case domain.SwitchCommandRequest:
		state.logger.Debug("account@default: SwitchCommandRequest", zap.String("key", msg.Key), zap.Bool("on", msg.On))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.switchCommand(msg)),
			mapTaskResult[domain.SwitchCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SwitchCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(15 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case domain.LightCommandRequest:
		state.logger.Debug("account@default: LightCommandRequest", zap.Bool("on", msg.On))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.lightCommand(msg)),
			mapTaskResult[domain.LightCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.LightCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(15 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case domain.CoverCommandRequest:
		state.logger.Debug("account@default: CoverCommandRequest", zap.String("action", msg.Action))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.coverCommand(msg)),
			mapTaskResult[domain.CoverCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.CoverCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(15 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case domain.ButtonCommandRequest:
		state.logger.Debug("account@default: ButtonCommandRequest", zap.String("key", msg.Key))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.buttonCommand(msg)),
			mapTaskResult[domain.ButtonCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.ButtonCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(15 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVivint)
	case *actor.Stopping:
		state.session.Disconnect(context.Background())
	default:
		state.logger.Debug("account@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *AccountActor) WaitingVivint(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("account@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.session.Disconnect(context.Background())
	default:
		state.logger.Debug("account@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *AccountActor) healthResponse() domain.ActorHealthResponse {
	healthy := a.session.LoggedIn()
	st := "logged_out"
	if healthy {
		st = "logged_in"
	}
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_ACCOUNT,
		Healthy: healthy,
		State:   st,
	}
}

func (a *AccountActor) login(loadDevices, subscribeRealtime bool) func() (*domain.LoginResponse, error) {
	return func() (*domain.LoginResponse, error) {
		err := a.session.Login(context.Background(), loadDevices, subscribeRealtime)
		switch {
		case err == nil:
			return &domain.LoginResponse{}, nil
		case errors.Is(err, vivint.ErrMfaRequired):
			// a second factor challenge is part of the normal flow
			return &domain.LoginResponse{MfaRequired: true}, nil
		default:
			logger.Error(err)
			return nil, err
		}
	}
}

func (a *AccountActor) verifyMfa(code string) func() (*domain.VerifyMfaResponse, error) {
	return func() (*domain.VerifyMfaResponse, error) {
		if err := a.session.VerifyMfa(context.Background(), code); err != nil {
			logger.Error(err)
			return nil, err
		}
		return &domain.VerifyMfaResponse{}, nil
	}
}

func (a *AccountActor) refreshDevices() (*domain.RefreshDevicesResponse, error) {
	account, err := a.account()
	if err != nil {
		return nil, err
	}
	if err := account.Refresh(context.Background()); err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.RefreshDevicesResponse{}, nil
}

func (a *AccountActor) alarmCommand(cmd domain.AlarmCommandRequest) func() (*domain.AlarmCommandResponse, error) {
	return func() (*domain.AlarmCommandResponse, error) {
		account, err := a.account()
		if err != nil {
			return nil, err
		}
		switch cmd.Action {
		case domain.ALARM_ACTION_DISARM:
			err = account.SetArmedState(context.Background(), cmd.PanelID, vivint.ArmedStateDisarmed)
		case domain.ALARM_ACTION_ARM_HOME:
			err = account.SetArmedState(context.Background(), cmd.PanelID, vivint.ArmedStateArmedStay)
		case domain.ALARM_ACTION_ARM_AWAY:
			err = account.SetArmedState(context.Background(), cmd.PanelID, vivint.ArmedStateArmedAway)
		case domain.ALARM_ACTION_TRIGGER:
			err = account.TriggerAlarm(context.Background(), cmd.PanelID)
		default:
			err = fmt.Errorf("unknown alarm action %s", cmd.Action)
		}
		if err != nil {
			logger.Error(err)
			return nil, err
		}
		return &domain.AlarmCommandResponse{}, nil
	}
}

func (a *AccountActor) lockCommand(cmd domain.LockCommandRequest) func() (*domain.LockCommandResponse, error) {
	return func() (*domain.LockCommandResponse, error) {
		account, err := a.account()
		if err != nil {
			return nil, err
		}
		if err := account.SetLockState(context.Background(), cmd.PanelID, cmd.DeviceID, cmd.Locked); err != nil {
			logger.Error(err)
			return nil, err
		}
		return &domain.LockCommandResponse{}, nil
	}
}

func (a *AccountActor) switchCommand(cmd domain.SwitchCommandRequest) func() (*domain.SwitchCommandResponse, error) {
	return func() (*domain.SwitchCommandResponse, error) {
		account, err := a.account()
		if err != nil {
			return nil, err
		}
		switch cmd.Key {
		case "":
			err = account.SetSwitchState(context.Background(), cmd.PanelID, cmd.DeviceID, cmd.On)
		case domain.SWITCH_KEY_PRIVACY_MODE:
			err = account.SetCameraSetting(context.Background(), cmd.PanelID, cmd.DeviceID, vivint.CameraSettingPrivacyMode, cmd.On)
		case domain.SWITCH_KEY_DETER_MODE:
			err = account.SetCameraSetting(context.Background(), cmd.PanelID, cmd.DeviceID, vivint.CameraSettingDeterMode, cmd.On)
		case domain.SWITCH_KEY_CHIME_EXTENDER:
			err = account.SetCameraSetting(context.Background(), cmd.PanelID, cmd.DeviceID, vivint.CameraSettingChimeExtender, cmd.On)
		default:
			err = fmt.Errorf("unknown switch key %s", cmd.Key)
		}
		if err != nil {
			logger.Error(err)
			return nil, err
		}
		return &domain.SwitchCommandResponse{}, nil
	}
}

func (a *AccountActor) lightCommand(cmd domain.LightCommandRequest) func() (*domain.LightCommandResponse, error) {
	return func() (*domain.LightCommandResponse, error) {
		account, err := a.account()
		if err != nil {
			return nil, err
		}
		if cmd.Brightness != nil {
			err = account.SetSwitchLevel(context.Background(), cmd.PanelID, cmd.DeviceID, *cmd.Brightness)
		} else {
			err = account.SetSwitchState(context.Background(), cmd.PanelID, cmd.DeviceID, cmd.On)
		}
		if err != nil {
			logger.Error(err)
			return nil, err
		}
		return &domain.LightCommandResponse{}, nil
	}
}

func (a *AccountActor) coverCommand(cmd domain.CoverCommandRequest) func() (*domain.CoverCommandResponse, error) {
	return func() (*domain.CoverCommandResponse, error) {
		account, err := a.account()
		if err != nil {
			return nil, err
		}
		switch cmd.Action {
		case domain.COVER_ACTION_OPEN:
			err = account.SetGarageDoorState(context.Background(), cmd.PanelID, cmd.DeviceID, vivint.GarageDoorStateOpening)
		case domain.COVER_ACTION_CLOSE:
			err = account.SetGarageDoorState(context.Background(), cmd.PanelID, cmd.DeviceID, vivint.GarageDoorStateClosing)
		default:
			err = fmt.Errorf("unknown cover action %s", cmd.Action)
		}
		if err != nil {
			logger.Error(err)
			return nil, err
		}
		return &domain.CoverCommandResponse{}, nil
	}
}

func (a *AccountActor) buttonCommand(cmd domain.ButtonCommandRequest) func() (*domain.ButtonCommandResponse, error) {
	return func() (*domain.ButtonCommandResponse, error) {
		account, err := a.account()
		if err != nil {
			return nil, err
		}
		if cmd.Key != domain.BUTTON_KEY_REBOOT {
			return nil, fmt.Errorf("unknown button key %s", cmd.Key)
		}
		device := account.FindDevice(cmd.PanelID, cmd.DeviceID)
		if device == nil {
			return nil, fmt.Errorf("unknown device %d on panel %d", cmd.DeviceID, cmd.PanelID)
		}
		switch device.Type {
		case vivint.DeviceTypePanel:
			err = account.RebootPanel(context.Background(), cmd.PanelID)
		case vivint.DeviceTypeCamera:
			err = account.RebootCamera(context.Background(), cmd.PanelID, cmd.DeviceID)
		default:
			err = fmt.Errorf("device type %s cannot reboot", device.Type)
		}
		if err != nil {
			logger.Error(err)
			return nil, err
		}
		return &domain.ButtonCommandResponse{}, nil
	}
}

// account returns the connected account or ErrNotConnected before login.
func (a *AccountActor) account() (vivint.Account, error) {
	account := a.session.Account()
	if account == nil {
		return nil, vivint.ErrNotConnected
	}
	return account, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
