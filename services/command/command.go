// Package command serves the line-oriented JSON control protocol for the
// motor-drive channels.
//
// Requests are one JSON object per line:
//
//	{"op":"duty","ch":0,"phase":"U","value":16384}
//
// Replies are one JSON object per line carrying "ok" and, on failure, an
// errcode string in "err".
package command

import (
	"context"
	"sync"

	"apmd-go/bus"
	"apmd-go/drivers/apmd"
	"apmd-go/errcode"
	"apmd-go/services/link"
	"apmd-go/x/jsonkey"
)

// TopicRequest accepts requests from other services; payload is []byte and
// the reply is []byte.
var TopicRequest = bus.T("pmd", "cmd")

// Result is published on pmd/<ch>/cmd/<op> after each handled request.
type Result struct {
	Op    string
	Ch    int
	Err   errcode.Code
	Reply []byte
}

type Service struct {
	drv    *apmd.Driver
	sysclk uint32

	mu    sync.Mutex
	ramps map[rampKey]chan struct{} // closed to stop a running ramp
}

func New(drv *apmd.Driver, sysclkHz uint32) *Service {
	return &Service{drv: drv, sysclk: sysclkHz, ramps: map[rampKey]chan struct{}{}}
}

// Start serves requests from l (when non-nil) and from TopicRequest until
// ctx is cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection, l *link.Link) {
	go s.loop(ctx, conn, l)
}

func (s *Service) loop(ctx context.Context, conn *bus.Connection, l *link.Link) {
	sub := conn.Subscribe(TopicRequest)
	defer conn.Unsubscribe(sub)

	var lines <-chan link.Event
	if l != nil {
		lines = l.Lines()
	}
	out := make([]byte, 0, 512)

	for {
		select {
		case <-ctx.Done():
			s.stopRamps()
			println("Info: command service stopping")
			return
		case ev := <-lines:
			out = s.serve(conn, ev.Line, out[:0])
			if err := l.WriteLine(out); err != nil {
				println("[command] write failed:", err.Error())
			}
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			req, _ := msg.Payload.([]byte)
			out = s.serve(conn, req, out[:0])
			conn.Reply(msg, append([]byte(nil), out...), false)
		}
	}
}

func (s *Service) serve(conn *bus.Connection, req, out []byte) []byte {
	out = s.Handle(req, out)
	op, _ := jsonkey.String(req, "op")
	ch, ok := jsonkey.Int(req, "ch")
	if op == "" || !ok {
		return out
	}
	code := errcode.OK
	if e, ok := jsonkey.String(out, "err"); ok {
		code = errcode.Code(e)
	}
	conn.Publish(conn.NewMessage(bus.T("pmd", ch, "cmd", op), Result{
		Op: op, Ch: ch, Err: code, Reply: append([]byte(nil), out...),
	}, false))
	return out
}

// Handle executes one request and writes the reply into out[:0].
func (s *Service) Handle(req, out []byte) []byte {
	if !jsonkey.Object(req) {
		return fail(out, "", errcode.InvalidPayload)
	}
	op, ok := jsonkey.String(req, "op")
	if !ok {
		return fail(out, "", errcode.InvalidParams)
	}
	h, ok := handlers[op]
	if !ok {
		return fail(out, op, errcode.UnknownOp)
	}
	idx, ok := jsonkey.Int(req, "ch")
	if !ok {
		return fail(out, op, errcode.InvalidParams)
	}
	id, ok := apmd.ChannelByIndex(idx)
	if !ok {
		return fail(out, op, errcode.UnknownChannel)
	}
	return h(s, request{raw: req, op: op, id: id}, out)
}

type request struct {
	raw []byte
	op  string
	id  apmd.ChannelID
}

func (r request) ok(out []byte) *jsonkey.Writer {
	return jsonkey.NewWriter(out).Bool("ok", true).Str("op", r.op).Int("ch", r.id.Index())
}

func fail(out []byte, op string, c errcode.Code) []byte {
	w := jsonkey.NewWriter(out).Bool("ok", false)
	if op != "" {
		w.Str("op", op)
	}
	return w.Str("err", string(c)).Bytes()
}

type handler func(s *Service, r request, out []byte) []byte

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"init":     (*Service).opInit,
		"duty":     (*Service).opDuty,
		"freq":     (*Service).opFreq,
		"hz":       (*Service).opHz,
		"deadtime": (*Service).opDeadTime,
		"enable":   (*Service).opEnable,
		"disable":  (*Service).opDisable,
		"status":   (*Service).opStatus,
		"arm":      (*Service).opArm,
		"release":  (*Service).opRelease,
		"regs":     (*Service).opRegs,
		"ramp":     (*Service).opRamp,
	}
}
