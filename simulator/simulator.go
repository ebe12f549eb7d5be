package simulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-autoprog/catalog"
	"github.com/moffa90/go-autoprog/target"
)

// DefaultFlashSize is the flash size of a simulated target (32 KiB).
const DefaultFlashSize = 32 * 1024

// Target is an in-memory AVR target. It implements target.Device.
//
// Fuses start at 0xFF and flash starts erased. Reads and writes require the
// target to be powered and fail with target.ErrNotPowered otherwise.
// Every call, successful or not, is appended to the operation log.
//
// Target is safe for concurrent use.
type Target struct {
	mu sync.Mutex

	signature uint16
	powered   bool
	fuses     [catalog.NumFuses]byte
	flash     []byte
	latency   time.Duration

	stuck        map[catalog.FuseCategory]byte
	fuseFaults   map[catalog.FuseCategory]error
	pageFaults   map[uint32]error
	powerFaults  map[bool]error
	signatureErr error
	patternPanic bool

	ops []Op
}

var _ target.Device = (*Target)(nil)

// Option configures a Target.
type Option func(*Target)

// WithFlashSize sets the flash size in bytes.
func WithFlashSize(size int) Option {
	return func(t *Target) {
		if size > 0 {
			t.flash = erased(size)
		}
	}
}

// WithLatency delays every hardware call. The delay honors the call's context.
func WithLatency(d time.Duration) Option {
	return func(t *Target) {
		t.latency = d
	}
}

// New creates a simulated target that reports signature.
func New(signature uint16, opts ...Option) *Target {
	t := &Target{
		signature:   signature,
		flash:       erased(DefaultFlashSize),
		stuck:       make(map[catalog.FuseCategory]byte),
		fuseFaults:  make(map[catalog.FuseCategory]error),
		pageFaults:  make(map[uint32]error),
		powerFaults: make(map[bool]error),
	}
	for i := range t.fuses {
		t.fuses[i] = 0xFF
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func erased(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}

// FailFuse makes writes to category fail with err.
func (t *Target) FailFuse(category catalog.FuseCategory, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fuseFaults[category] = err
}

// StickFuse makes category read back value whatever is written, so writes
// of any other value fail verification.
func (t *Target) StickFuse(category catalog.FuseCategory, value byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stuck[category] = value
}

// FailPage makes the page write at address fail with err.
func (t *Target) FailPage(address uint32, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pageFaults[address] = err
}

// FailPower makes switching the supply to on fail with err.
// The rail still follows the request.
func (t *Target) FailPower(on bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.powerFaults[on] = err
}

// FailSignature makes signature reads fail with err.
func (t *Target) FailSignature(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signatureErr = err
}

// PanicOnPattern makes EmitPattern panic, as a wedged indicator driver would.
func (t *Target) PanicOnPattern() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.patternPanic = true
}

// SetSignature replaces the signature the target reports, as if another
// chip had been placed in the socket.
func (t *Target) SetSignature(signature uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signature = signature
}

// ReadSignature implements target.Device.
func (t *Target) ReadSignature(ctx context.Context) (uint16, error) {
	if err := t.wait(ctx); err != nil {
		t.record(Op{Kind: OpReadSignature, Err: err})
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.signatureErr
	if err == nil && !t.powered {
		err = target.ErrNotPowered
	}
	t.ops = append(t.ops, Op{Kind: OpReadSignature, Err: err})
	if err != nil {
		return 0, err
	}
	return t.signature, nil
}

// WriteFuse implements target.Device.
func (t *Target) WriteFuse(ctx context.Context, category catalog.FuseCategory, value byte) error {
	op := Op{Kind: OpWriteFuse, Category: category, Value: value}

	if err := t.wait(ctx); err != nil {
		op.Err = err
		t.record(op)
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	op.Err = t.writeFuse(category, value)
	t.ops = append(t.ops, op)
	return op.Err
}

func (t *Target) writeFuse(category catalog.FuseCategory, value byte) error {
	if int(category) >= catalog.NumFuses {
		return fmt.Errorf("no such fuse: %s", category)
	}
	if !t.powered {
		return target.ErrNotPowered
	}
	if err := t.fuseFaults[category]; err != nil {
		return err
	}

	stored := value
	if v, ok := t.stuck[category]; ok {
		stored = v
	}
	t.fuses[category] = stored

	if stored != value {
		return &target.VerifyError{What: "fuse " + category.String(), Expected: value, Actual: stored}
	}
	return nil
}

// WriteFlashPage implements target.Device.
func (t *Target) WriteFlashPage(ctx context.Context, address uint32, data []byte) error {
	op := Op{Kind: OpWriteFlashPage, Address: address, Length: len(data)}

	if err := t.wait(ctx); err != nil {
		op.Err = err
		t.record(op)
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	op.Err = t.writePage(address, data)
	t.ops = append(t.ops, op)
	return op.Err
}

func (t *Target) writePage(address uint32, data []byte) error {
	if !t.powered {
		return target.ErrNotPowered
	}
	if err := t.pageFaults[address]; err != nil {
		return err
	}
	if uint64(address)+uint64(len(data)) > uint64(len(t.flash)) {
		return fmt.Errorf("page 0x%04X+%d beyond %d bytes of flash", address, len(data), len(t.flash))
	}
	copy(t.flash[address:], data)
	return nil
}

// SetPower implements target.Device. An injected power fault is returned
// after the switch takes effect.
func (t *Target) SetPower(ctx context.Context, on bool) error {
	op := Op{Kind: OpSetPower, On: on}

	if err := t.wait(ctx); err != nil {
		op.Err = err
		t.record(op)
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.powered = on
	op.Err = t.powerFaults[on]
	t.ops = append(t.ops, op)
	return op.Err
}

// EmitPattern implements target.Device.
func (t *Target) EmitPattern(pattern uint32, count uint32) {
	t.mu.Lock()
	t.ops = append(t.ops, Op{Kind: OpEmitPattern, Pattern: pattern, Count: count})
	wedged := t.patternPanic
	t.mu.Unlock()

	if wedged {
		panic("simulated indicator failure")
	}
}

// Powered reports whether the supply is on.
func (t *Target) Powered() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.powered
}

// Fuses returns the current fuse values.
func (t *Target) Fuses() catalog.FuseSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return catalog.FuseSetFromBytes(t.fuses)
}

// Flash returns a copy of n flash bytes starting at address.
func (t *Target) Flash(address uint32, n int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(address) >= len(t.flash) {
		return nil
	}
	end := int(address) + n
	if end > len(t.flash) {
		end = len(t.flash)
	}
	return append([]byte(nil), t.flash[address:end]...)
}

// Ops returns a copy of the operation log.
func (t *Target) Ops() []Op {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Op(nil), t.ops...)
}

// ResetLog clears the operation log.
func (t *Target) ResetLog() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = nil
}

func (t *Target) record(op Op) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = append(t.ops, op)
}

func (t *Target) wait(ctx context.Context) error {
	if t.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(t.latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
