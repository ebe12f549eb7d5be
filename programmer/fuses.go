package programmer

import (
	"context"
	"time"

	"github.com/moffa90/go-autoprog/catalog"
	"github.com/moffa90/go-autoprog/target"
)

// FuseProgrammer writes a FuseSet to the target. It does not know which
// phase it runs in; the controller decides when each set is applied.
type FuseProgrammer struct {
	device  target.Device
	timeout time.Duration
}

// NewFuseProgrammer creates a FuseProgrammer. timeout bounds each byte.
func NewFuseProgrammer(device target.Device, timeout time.Duration) *FuseProgrammer {
	if device == nil {
		panic("device cannot be nil")
	}
	return &FuseProgrammer{device: device, timeout: timeout}
}

// ApplyFuses writes the five fuse bytes in category order
// (prot, low, high, ext, reserved). The first failure stops the write and is
// returned as a *FuseWriteError; later bytes are not attempted.
func (f *FuseProgrammer) ApplyFuses(ctx context.Context, fuses catalog.FuseSet) error {
	return fuses.Each(func(category catalog.FuseCategory, value byte) error {
		return f.writeFuse(ctx, category, value)
	})
}

func (f *FuseProgrammer) writeFuse(ctx context.Context, category catalog.FuseCategory, value byte) error {
	ctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.device.WriteFuse(ctx, category, value); err != nil {
		return &FuseWriteError{Category: category, Value: value, Err: err}
	}
	return nil
}
