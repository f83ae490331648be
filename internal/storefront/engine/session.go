package engine

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Session owns the process-wide cart for whoever is signed in. Components
// read the cart through it and change it only through the Engine.
type Session struct {
	engine *Engine
	log    logrus.FieldLogger
}

// NewSession creates a signed-out session with an empty cart
func NewSession(log logrus.FieldLogger) *Session {
	return &Session{engine: New(nil, log), log: log}
}

// Cart returns the session's engine
func (s *Session) Cart() *Engine {
	return s.engine
}

// Login attaches the backend for a signed-in user and rehydrates the cart
func (s *Session) Login(ctx context.Context, remote Remote) error {
	s.engine.attach(remote)
	if err := s.engine.Refresh(ctx); err != nil {
		return err
	}
	s.log.WithField("lines", len(s.engine.Snapshot().Items)).Info("cart restored")
	return nil
}

// Logout empties the cart. Responses to calls still in flight are discarded.
func (s *Session) Logout() {
	s.engine.attach(nil)
	s.log.Info("signed out, cart cleared")
}
