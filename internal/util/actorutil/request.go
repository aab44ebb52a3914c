package actorutil

import (
	"github.com/berfenger/vivint2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
)

// Request resolves where the answer to an actor request should go. A
// request can carry an explicit reply address, for answers that must
// skip the forwarding actor. Without one the answer goes to the sender.
type Request struct {
	req domain.ActorRequest
}

func ForRequest(r domain.ActorRequest) Request {
	return Request{req: r}
}

func (r Request) ReplyTo(ctx actor.Context) *actor.PID {
	if pid := r.req.ReplyTo(); pid != nil {
		return (*actor.PID)(pid)
	}
	return ctx.Sender()
}

func (r Request) Respond(ctx actor.Context, resp domain.ActorResponse) {
	if pid := r.req.ReplyTo(); pid != nil {
		ctx.Send((*actor.PID)(pid), resp)
		return
	}
	ctx.Respond(resp)
}
