package proxy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/qi-bus/qibus/internal/registry"
	"github.com/qi-bus/qibus/internal/wire"
	"github.com/qi-bus/qibus/metrics"
)

// onMessagePending is the dispatcher installed on the proxy's socket
// for its service, per spec.md §4.3. It takes the registry lock only
// for the lookup+removal (registry.Take already serializes that), and
// resolves slots / triggers subscribers outside any lock so user
// callbacks never nest behind the registry mutex.
func (p *ObjectProxy) onMessagePending(msg *wire.Message) {
	switch msg.Type() {
	case wire.Reply:
		p.handleReply(msg)
	case wire.Error:
		p.handleError(msg)
	case wire.Event:
		p.handleEvent(msg)
	case wire.Call:
		p.log.Warn("proxy: unexpected Call message on proxy", zap.Uint32("request_id", msg.ID()))
	default:
		p.log.Warn("proxy: unknown message type", zap.Uint32("request_id", msg.ID()))
	}
}

func (p *ObjectProxy) handleReply(msg *wire.Message) {
	slot, ok := p.reg.Take(msg.ID())
	if !ok {
		p.log.Error("proxy: reply for unknown request id", zap.Uint32("request_id", msg.ID()))
		return
	}
	metrics.PendingCalls.Dec()

	method, ok := p.meta.MethodByID(msg.Function())
	if !ok {
		metrics.CallsResolved.WithLabelValues("unknown_method").Inc()
		slot.Resolve(registry.Result{Err: fmt.Errorf("%w: function %d", ErrUnknownMethod, msg.Function())})
		return
	}
	retSig, err := method.Signature.Return()
	if err != nil || retSig == "" {
		metrics.CallsResolved.WithLabelValues("unknown_return_type").Inc()
		slot.Resolve(registry.Result{Err: fmt.Errorf("proxy: no return type for method %q: %v", method.Name, err)})
		return
	}

	values, err := msg.Payload().Decode(retSig)
	if err != nil {
		metrics.CallsResolved.WithLabelValues("decode_error").Inc()
		slot.Resolve(registry.Result{Err: fmt.Errorf("proxy: decoding reply for %q: %w", method.Name, err)})
		return
	}
	var value any
	if len(values) == 1 {
		value = values[0]
	} else {
		value = values
	}
	metrics.CallsResolved.WithLabelValues("value").Inc()
	slot.Resolve(registry.Result{Value: value})
}

func (p *ObjectProxy) handleError(msg *wire.Message) {
	slot, ok := p.reg.Take(msg.ID())
	if !ok {
		p.log.Error("proxy: error reply for unknown request id", zap.Uint32("request_id", msg.ID()))
		return
	}
	metrics.PendingCalls.Dec()

	sig, sigErr := msg.Payload().Signature()
	if sigErr != nil || sig != "s" {
		metrics.CallsResolved.WithLabelValues("malformed_error").Inc()
		slot.Resolve(registry.Result{Err: ErrMalformedErrorPayload})
		return
	}
	values, err := msg.Payload().Decode("s")
	if err != nil || len(values) != 1 {
		metrics.CallsResolved.WithLabelValues("malformed_error").Inc()
		slot.Resolve(registry.Result{Err: ErrMalformedErrorPayload})
		return
	}
	errStr, _ := values[0].(string)
	metrics.CallsResolved.WithLabelValues("error").Inc()
	slot.Resolve(registry.Result{Err: fmt.Errorf("%s", errStr)})
}

func (p *ObjectProxy) handleEvent(msg *wire.Message) {
	signal, ok := p.meta.SignalByID(msg.Function())
	if !ok {
		p.log.Warn("proxy: event for unknown signal", zap.Uint32("event", msg.Function()))
		return
	}
	inner, err := signal.Signature.InnerArgs()
	if err != nil {
		p.log.Warn("proxy: bad signal signature", zap.String("signal", signal.Name), zap.Error(err))
		return
	}

	args, err := func() (args []any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic decoding event payload: %v", r)
			}
		}()
		return msg.Payload().Decode(inner)
	}()
	if err != nil {
		p.log.Warn("proxy: decoding event payload failed", zap.String("signal", signal.Name), zap.Error(err))
		return
	}

	p.linksMu.Lock()
	subs := make([]Subscriber, 0, len(p.links))
	for _, l := range p.links {
		if l.event == msg.Function() {
			subs = append(subs, l.sub)
		}
	}
	p.linksMu.Unlock()

	for _, sub := range subs {
		sub(args)
	}
}

// failAllPending resolves every outstanding registry slot with
// ErrProxyClosed, used by the FailPending ClosePolicy.
func (p *ObjectProxy) failAllPending() {
	for _, slot := range p.reg.TakeAll() {
		metrics.PendingCalls.Dec()
		slot.Resolve(registry.Result{Err: ErrProxyClosed})
	}
}
