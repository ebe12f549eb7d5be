package programmer

import (
	"context"
	"time"

	"github.com/moffa90/go-autoprog/target"
)

// PowerController switches the target supply and tracks its state.
// Both directions are idempotent so a failing session can always force the
// target off without knowing how far it got.
type PowerController struct {
	device  target.Device
	timeout time.Duration
	powered bool
}

// NewPowerController creates a PowerController. timeout bounds each switch;
// zero leaves it to the device.
func NewPowerController(device target.Device, timeout time.Duration) *PowerController {
	if device == nil {
		panic("device cannot be nil")
	}
	return &PowerController{device: device, timeout: timeout}
}

// PowerOn asserts the target supply. It is a no-op when already powered.
//
// A failed PowerOn leaves the rail in an unknown state; the controller
// treats it as powered so a later PowerOff still issues the off command.
func (p *PowerController) PowerOn(ctx context.Context) error {
	if p.powered {
		return nil
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	err := p.device.SetPower(ctx, true)
	p.powered = true
	if err != nil {
		return &PowerError{On: true, Err: err}
	}
	return nil
}

// PowerOff deasserts the target supply. It is a no-op when not powered.
// The target is recorded as unpowered once the off command was attempted,
// whether or not it succeeded.
func (p *PowerController) PowerOff(ctx context.Context) error {
	if !p.powered {
		return nil
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	err := p.device.SetPower(ctx, false)
	p.powered = false
	if err != nil {
		return &PowerError{On: false, Err: err}
	}
	return nil
}

// IsPowered reports whether the target supply is considered on.
func (p *PowerController) IsPowered() bool {
	return p.powered
}
