package network

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Activator switches the signalling link at the gateway on and off through
// its management interface.
type Activator interface {
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
}

// LogActivator only logs the requests. It is used when the gateway link is
// managed outside of the relay.
type LogActivator struct {
	Host string
}

// Activate logs the activation request.
func (a LogActivator) Activate(ctx context.Context) error {
	log.WithField("host", a.Host).Info("Activating signalling link")
	return nil
}

// Deactivate logs the deactivation request.
func (a LogActivator) Deactivate(ctx context.Context) error {
	log.WithField("host", a.Host).Info("Deactivating signalling link")
	return nil
}
