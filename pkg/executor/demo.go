package executor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/abshkbh/shoal/pkg/command"
)

// Demo is an in-memory backend for local development of the client and the
// admin UI.
type Demo struct {
	lock       sync.RWMutex
	status     any
	lastDeploy json.RawMessage
}

func NewDemo() *Demo {
	return &Demo{status: "ok"}
}

// SetStatus replaces the payload reported by the status command.
func (d *Demo) SetStatus(status any) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.status = status
}

func (d *Demo) LastDeploy() json.RawMessage {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.lastDeploy
}

func (d *Demo) Handlers() map[command.Name]HandlerFunc {
	return map[command.Name]HandlerFunc{
		command.Ping:   d.ping,
		command.Status: d.statusHandler,
		command.Deploy: d.deploy,
	}
}

func (d *Demo) ping(_ context.Context, _ []json.RawMessage) (any, error) {
	return "pong", nil
}

func (d *Demo) statusHandler(_ context.Context, _ []json.RawMessage) (any, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.status, nil
}

func (d *Demo) deploy(_ context.Context, args []json.RawMessage) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("deploy needs a configuration argument")
	}

	d.lock.Lock()
	d.lastDeploy = args[0]
	d.lock.Unlock()

	log.WithField("configuration", string(args[0])).Info("deployed configuration")
	return map[string]json.RawMessage{"deployed": args[0]}, nil
}
