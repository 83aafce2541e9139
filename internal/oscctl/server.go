// Package oscctl is phonon's external control channel: an OSC server
// exposing /eval, /hush and /panic over UDP, the same three verbs the
// original live-coding surface used. Adapted from go-osc's conventional
// server/dispatcher pattern (no in-pack repo shows server-side go-osc
// usage; schollz-221e only shows the client side — see DESIGN.md).
package oscctl

import (
	"fmt"
	"log"

	"github.com/hypebeast/go-osc/osc"
)

// Engine is the subset of *phonon.Engine the control channel needs.
// Declared as an interface here (rather than importing the root package
// directly) so oscctl stays a leaf dependency the root package can import
// without a cycle.
type Engine interface {
	Hush()
	Panic()
}

// Server dispatches incoming OSC messages onto an Engine. Compile is
// injected separately from Engine since turning program text into
// []compiler.Statement is internal/sourcelang's job, not oscctl's.
type Server struct {
	addr    string
	engine  Engine
	compile func(src string) error
	osc     *osc.Server
}

// NewServer wires up the standard three handlers against addr. Call
// ListenAndServe to start serving; it blocks, so callers typically run it
// in its own goroutine.
func NewServer(addr string, engine Engine, compile func(src string) error) *Server {
	s := &Server{addr: addr, engine: engine, compile: compile}

	d := osc.NewStandardDispatcher()
	d.AddMsgHandler("/eval", s.handleEval)
	d.AddMsgHandler("/hush", s.handleHush)
	d.AddMsgHandler("/panic", s.handlePanic)

	s.osc = &osc.Server{Addr: addr, Dispatcher: d}
	return s
}

// ListenAndServe starts the UDP server. Blocks until the socket errors.
func (s *Server) ListenAndServe() error {
	return s.osc.ListenAndServe()
}

func (s *Server) handleEval(msg *osc.Message) {
	src, err := firstString(msg)
	if err != nil {
		log.Printf("oscctl: /eval: %v", err)
		return
	}
	if err := s.compile(src); err != nil {
		log.Printf("oscctl: /eval compile error: %v", err)
	}
}

func (s *Server) handleHush(msg *osc.Message) {
	s.engine.Hush()
}

func (s *Server) handlePanic(msg *osc.Message) {
	s.engine.Panic()
}

func firstString(msg *osc.Message) (string, error) {
	if len(msg.Arguments) == 0 {
		return "", fmt.Errorf("expected one string argument, got none")
	}
	src, ok := msg.Arguments[0].(string)
	if !ok {
		return "", fmt.Errorf("expected a string argument, got %T", msg.Arguments[0])
	}
	return src, nil
}
