package vpn

import (
	"context"
	"strings"
	"sync"

	"github.com/yllada/tunnel-tray/common"
)

// Controller issues systemctl lifecycle commands against one service unit.
// All invocations made through a Controller are serialized.
type Controller struct {
	runner Runner
	log    common.Logger

	// mu serializes subprocesses; idMu guards identity.
	mu       sync.Mutex
	idMu     sync.RWMutex
	identity Identity
}

// NewController creates a Controller bound to identity.
func NewController(runner Runner, identity Identity) *Controller {
	return &Controller{
		runner:   runner,
		identity: identity,
		log:      common.Named("controller"),
	}
}

// Identity returns the unit the controller is bound to.
func (c *Controller) Identity() Identity {
	c.idMu.RLock()
	defer c.idMu.RUnlock()
	return c.identity
}

// Rebind switches the controller to identity once any in-flight command
// has finished.
func (c *Controller) Rebind(identity Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.idMu.Lock()
	old := c.identity
	c.identity = identity
	c.idMu.Unlock()

	if old != identity {
		c.log.Info("Rebound %s -> %s", old.Unit(), identity.Unit())
	}
}

// IsActive reports whether the unit is running. The query is never
// elevated and its output is discarded.
func (c *Controller) IsActive(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.Identity()
	if id.Validate() != nil {
		return false
	}
	res := c.runner.Run(ctx, []string{"systemctl", "is-active", id.Unit()}, RunOptions{Quiet: true})
	return res.Success()
}

// Start starts the unit and reports whether systemctl exited 0.
func (c *Controller) Start(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lifecycle(ctx, "start")
}

// Stop stops the unit and reports whether systemctl exited 0.
func (c *Controller) Stop(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lifecycle(ctx, "stop")
}

// Restart stops then starts the unit without letting another command run
// in between. It reports whether the start succeeded.
func (c *Controller) Restart(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lifecycle(ctx, "stop")
	return c.lifecycle(ctx, "start")
}

// lifecycle runs an elevated systemctl verb. Callers hold c.mu.
func (c *Controller) lifecycle(ctx context.Context, verb string) bool {
	id := c.Identity()
	if err := id.Validate(); err != nil {
		c.log.Warn("Cannot %s: %v", verb, err)
		return false
	}

	unit := id.Unit()
	c.log.Info("systemctl %s %s", verb, unit)

	res := c.runner.Run(ctx, []string{"systemctl", verb, unit}, RunOptions{Elevate: true})
	if !res.Success() {
		c.log.Warn("%v: systemctl %s %s exited %d: %s",
			common.ErrCommandFailed, verb, unit, res.ExitCode, strings.TrimSpace(string(res.Output)))
		return false
	}
	return true
}
