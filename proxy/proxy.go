// Package proxy implements the remote object proxy from spec.md §4.3:
// the client-side stand-in for a service hosted on a peer. It is the
// generalization of the teacher's Caller — method invocation and
// signal subscription over a session — specialized here to a single
// remote service on a single transport.Socket, with the teacher's
// reqMap/bucket pair replaced by the registry package and its
// localMap-driven switchboard replaced by signal subscriber sets.
package proxy

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/qi-bus/qibus/internal/registry"
	"github.com/qi-bus/qibus/internal/typesys"
	"github.com/qi-bus/qibus/internal/wire"
	"github.com/qi-bus/qibus/metrics"
	"github.com/qi-bus/qibus/transport"
)

var tracer = otel.Tracer("github.com/qi-bus/qibus/proxy")

// Subscriber receives a signal's decoded argument pack.
type Subscriber func(args []any)

// ClosePolicy controls what happens to outstanding pending calls when
// a proxy is closed. spec.md §9 leaves this an open question; qibus
// defaults to the teacher's behavior (leave them dangling) and exposes
// the alternative as an explicit opt-in.
type ClosePolicy int

const (
	// LeaveDangling matches the source/teacher behavior: outstanding
	// futures simply never resolve.
	LeaveDangling ClosePolicy = iota
	// FailPending resolves every outstanding slot with ErrProxyClosed.
	FailPending
)

// link tracks one local signal subscription.
type link struct {
	event uint32
	sub   Subscriber
}

// ObjectProxy is the client-side stand-in for one remote service.
type ObjectProxy struct {
	service uint32
	meta    *typesys.MetaObject

	log *zap.Logger

	mu       sync.Mutex
	sock     transport.Socket
	token    transport.Token
	attached bool

	reg *registry.Registry

	linksMu    sync.Mutex
	links      map[uint32]*link
	nextLinkIx uint32

	DebugAssertSignatures bool
	ClosePolicy           ClosePolicy

	closed bool
}

// New constructs a proxy for service, bound to meta and sock, and
// installs its inbound dispatcher on sock (spec.md §4.3 "Construction
// and socket attachment").
func New(service uint32, meta *typesys.MetaObject, sock transport.Socket, log *zap.Logger) *ObjectProxy {
	if log == nil {
		log = zap.NewNop()
	}
	p := &ObjectProxy{
		service: service,
		meta:    meta,
		log:     log.With(zap.Uint32("service", service)),
		reg:     registry.New(log),
		links:   make(map[uint32]*link),
	}
	p.SetTransportSocket(sock)
	return p
}

// SetLogger re-points the proxy's logger, mirroring the teacher's
// Caller.SetOutput.
func (p *ObjectProxy) SetLogger(log *zap.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if log == nil {
		log = zap.NewNop()
	}
	p.log = log.With(zap.Uint32("service", p.service))
}

// SetTransportSocket detaches any previously installed dispatcher and
// attaches one to sock. A nil sock only detaches (spec.md §4.3).
func (p *ObjectProxy) SetTransportSocket(sock transport.Socket) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detachLocked()
	p.sock = sock
	if sock != nil {
		p.token = sock.MessagePendingConnect(p.service, p.onMessagePending)
		p.attached = true
	}
}

func (p *ObjectProxy) detachLocked() {
	if p.attached && p.sock != nil {
		p.sock.MessagePendingDisconnect(p.service, p.token)
	}
	p.attached = false
}

// MetaCall issues an asynchronous method invocation, per spec.md
// §4.3. The returned channel receives at most one registry.Result; a
// call still pending when the proxy is closed under LeaveDangling
// never receives one.
func (p *ObjectProxy) MetaCall(ctx context.Context, functionID uint32, argSig string, args ...any) <-chan registry.Result {
	_, span := tracer.Start(ctx, "qibus.meta_call", trace.WithAttributes(
		attribute.Int64("qibus.service", int64(p.service)),
		attribute.Int64("qibus.function", int64(functionID)),
	))
	defer span.End()

	method, haveMethod := p.meta.MethodByID(functionID)

	payload, err := typesys.NewBuffer(argSig, args...)
	if err != nil {
		metrics.CallsResolved.WithLabelValues("encode_error").Inc()
		return resolvedNow(registry.Result{Err: fmt.Errorf("proxy: encoding arguments: %w", err)})
	}

	if p.DebugAssertSignatures && haveMethod {
		if inner, ierr := method.Signature.InnerArgs(); ierr == nil && inner != argSig {
			p.log.Error("proxy: argument signature mismatch",
				zap.String("declared", inner), zap.String("got", argSig), zap.Uint32("function", functionID))
		}
	}

	msg := wire.NewCall(p.service, functionID, payload)

	slot := registry.NewSlot()
	p.reg.Insert(msg.ID(), slot)
	metrics.PendingCalls.Inc()

	p.mu.Lock()
	sock := p.sock
	p.mu.Unlock()

	if sock == nil || !sock.IsConnected() || !sock.Send(msg) {
		name := method.Name
		if !haveMethod {
			name = fmt.Sprintf("function#%d", functionID)
		}
		slot.Resolve(registry.Result{Err: fmt.Errorf("%w: %s", ErrTransportUnavailable, name)})
		p.reg.Remove(msg.ID())
		metrics.PendingCalls.Dec()
		metrics.CallsResolved.WithLabelValues("transport_unavailable").Inc()
		return slot.Future()
	}

	metrics.CallsIssued.Inc()
	return slot.Future()
}

// Connect subscribes sub to event locally and notifies the remote
// peer, per spec.md §4.3. The returned link-id encodes (event<<16 |
// local index).
func (p *ObjectProxy) Connect(eventID uint32, sub Subscriber) uint32 {
	p.linksMu.Lock()
	ix := p.nextLinkIx
	p.nextLinkIx++
	linkID := (eventID << 16) | ix
	p.links[linkID] = &link{event: eventID, sub: sub}
	p.linksMu.Unlock()

	metrics.SignalConnects.Inc()

	payload, err := typesys.NewBuffer("uuu", uint64(p.service), uint64(eventID), uint64(linkID))
	if err != nil {
		p.log.Error("proxy: encoding RegisterEvent", zap.Error(err))
		return linkID
	}
	msg := wire.NewCall(wire.ServiceServer, wire.FunctionRegisterEvent, payload)

	p.mu.Lock()
	sock := p.sock
	p.mu.Unlock()
	if sock == nil || !sock.Send(msg) {
		p.log.Warn("proxy: RegisterEvent send failed", zap.Uint32("event", eventID), zap.Uint32("link_id", linkID))
	}
	return linkID
}

// Disconnect removes the local subscriber for linkID and notifies the
// remote peer, per spec.md §4.3. Local removal failure short-circuits
// before any send, since "local state is authoritative" (spec.md §7.5).
func (p *ObjectProxy) Disconnect(linkID uint32) bool {
	eventID := linkID >> 16

	p.linksMu.Lock()
	_, ok := p.links[linkID]
	if ok {
		delete(p.links, linkID)
	}
	p.linksMu.Unlock()
	if !ok {
		return false
	}
	metrics.SignalDisconnects.Inc()

	payload, err := typesys.NewBuffer("uuu", uint64(p.service), uint64(eventID), uint64(linkID))
	if err != nil {
		p.log.Error("proxy: encoding UnregisterEvent", zap.Error(err))
		return true
	}
	msg := wire.NewCall(wire.ServiceServer, wire.FunctionUnregisterEvent, payload)

	p.mu.Lock()
	sock := p.sock
	p.mu.Unlock()
	if sock == nil || !sock.Send(msg) {
		p.log.Warn("proxy: UnregisterEvent send failed", zap.Uint32("link_id", linkID))
	}
	return true
}

// MetaEmit sends an Event for eventID; fire-and-forget (spec.md §4.3).
func (p *ObjectProxy) MetaEmit(eventID uint32, argSig string, args ...any) {
	payload, err := typesys.NewBuffer(argSig, args...)
	if err != nil {
		p.log.Error("proxy: encoding event payload", zap.Error(err), zap.Uint32("event", eventID))
		return
	}
	msg := wire.NewEvent(p.service, eventID, payload)

	p.mu.Lock()
	sock := p.sock
	p.mu.Unlock()
	if sock == nil || !sock.Send(msg) {
		p.log.Warn("proxy: event emit send failed", zap.Uint32("event", eventID))
	}
}

// Close detaches the dispatcher and, per ClosePolicy, optionally fails
// all outstanding pending calls. Idempotent.
func (p *ObjectProxy) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.detachLocked()
	policy := p.ClosePolicy
	p.mu.Unlock()

	if policy == FailPending {
		p.failAllPending()
	}
}
