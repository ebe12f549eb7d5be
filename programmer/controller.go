package programmer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/moffa90/go-autoprog/catalog"
	"github.com/moffa90/go-autoprog/target"
)

// Controller drives a target through one programming session at a time:
// power on, identify, program fuses, flash, normal fuses, power off.
//
// Each step consumes the token returned by the previous one. A step that
// fails ends the session: the target is forced off, the error pattern is
// shown and a *SessionError is returned.
//
// Cancellation is honored only before the target is powered. Once PowerOn
// has switched the supply, steps ignore cancellation of their context
// (writes to fuses and flash cannot be safely abandoned halfway) and each
// hardware call is bounded by the configured timeouts instead.
type Controller struct {
	device    target.Device
	resolver  *catalog.Resolver
	power     *PowerController
	indicator *StatusIndicator
	fuses     *FuseProgrammer
	flash     *FlashProgrammer
	config    Config

	active atomic.Pointer[Session]
}

// New creates a Controller for device using cat to identify targets.
//
// Example:
//
//	ctrl := programmer.New(device, catalog.Builtin(),
//	    programmer.WithLogger(myLogger),
//	    programmer.WithFlashTimeout(5*time.Second),
//	)
//	result, err := ctrl.Run(context.Background())
func New(device target.Device, cat *catalog.Catalog, opts ...Option) *Controller {
	if device == nil {
		panic("device cannot be nil")
	}
	if cat == nil {
		panic("catalog cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Controller{
		device:    device,
		resolver:  catalog.NewResolver(cat),
		power:     NewPowerController(device, cfg.PowerTimeout),
		indicator: NewStatusIndicator(device, cfg.Logger),
		fuses:     NewFuseProgrammer(device, cfg.CommandTimeout),
		flash:     NewFlashProgrammer(device, cfg.PageTimeout),
		config:    cfg,
	}
	return c
}

// IsPowered reports whether the controller considers the target powered.
func (c *Controller) IsPowered() bool {
	return c.power.IsPowered()
}

// Active returns the session in progress, or nil.
func (c *Controller) Active() *Session {
	return c.active.Load()
}

// Run performs a complete session:
//  1. Power on the target
//  2. Read its signature and select a catalog profile
//  3. Write the programming fuses
//  4. Write the flash image
//  5. Write the normal fuses
//  6. Power off
//
// On failure the returned Result describes the failed session and the error
// is a *SessionError. A nil Result means the session never started, either
// because ctx was already done or because another session is active.
//
// Example:
//
//	result, err := ctrl.Run(ctx)
//	if err != nil {
//	    var serr *programmer.SessionError
//	    if errors.As(err, &serr) {
//	        log.Printf("failed: %s", serr.Reason)
//	    }
//	}
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	s, err := c.Begin(ctx)
	if err != nil {
		return nil, err
	}

	powered, err := c.PowerOn(ctx, s)
	if err != nil {
		return s.result, err
	}

	identified, err := c.Identify(ctx, powered)
	if err != nil {
		return s.result, err
	}

	pre, err := c.ProgramFuses(ctx, identified)
	if err != nil {
		return s.result, err
	}

	flashed, err := c.Flash(ctx, pre)
	if err != nil {
		return s.result, err
	}

	finalized, err := c.FinalizeFuses(ctx, flashed)
	if err != nil {
		return s.result, err
	}

	return c.Finish(ctx, finalized)
}

// Begin starts a session in PhaseIdle. It fails with ErrSessionActive when
// another session is in progress, and with the context error when ctx is
// already done.
func (c *Controller) Begin(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	s := newSession()
	if !c.active.CompareAndSwap(nil, s) {
		return nil, ErrSessionActive
	}

	c.logDebug("session started", "session", s.id.String())
	c.indicator.Signal(PatternIdle, 1)
	c.reportProgress(s, Progress{Phase: PhaseIdle})

	return s, nil
}

// Abandon releases a session that was never powered. Only sessions still in
// PhaseIdle can be abandoned; later phases must run to a terminal phase.
func (c *Controller) Abandon(s *Session) error {
	if err := c.check(s, PhaseIdle); err != nil {
		return err
	}
	c.release(s)
	c.logDebug("session abandoned", "session", s.id.String())
	return nil
}

// PowerOn switches the target on. This is the last point where ctx
// cancellation is honored: if ctx is done the session is released without
// touching the target.
func (c *Controller) PowerOn(ctx context.Context, s *Session) (*Powered, error) {
	if err := c.check(s, PhaseIdle); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		c.release(s)
		return nil, fmt.Errorf("cancelled before power on: %w", err)
	}

	hw := context.WithoutCancel(ctx)
	err := c.power.PowerOn(hw)
	s.powered = c.power.IsPowered()
	if err != nil {
		return nil, c.fail(hw, s, ReasonPowerFault, err)
	}

	s.phase = PhaseIdentifying
	c.indicator.Signal(PatternWorking, 1)
	c.reportProgress(s, Progress{Phase: PhaseIdentifying, Percentage: 5})

	return &Powered{s: s}, nil
}

// Identify reads the target signature and resolves it to a catalog profile.
// An unreadable or unknown signature fails the session before any fuse or
// flash write.
func (c *Controller) Identify(ctx context.Context, tok *Powered) (*Identified, error) {
	if tok == nil {
		return nil, ErrPhaseOrder
	}
	s := tok.s
	if err := c.check(s, PhaseIdentifying); err != nil {
		return nil, err
	}
	hw := context.WithoutCancel(ctx)

	sig, err := c.readSignature(hw)
	if err != nil {
		return nil, c.fail(hw, s, ReasonUnknownChip, fmt.Errorf("read signature: %w", err))
	}
	s.signature = sig

	res, err := c.resolver.Resolve(sig)
	if err != nil {
		return nil, c.fail(hw, s, ReasonUnknownChip, err)
	}
	s.profile = res.Profile
	s.alias = res.Alias

	if res.Alias != nil {
		c.logInfo("target identified through alias",
			"session", s.id.String(),
			"signature", fmt.Sprintf("0x%04X", sig),
			"alias", res.Alias.Name,
			"profile", res.Profile.Name,
		)
	} else {
		c.logInfo("target identified",
			"session", s.id.String(),
			"signature", fmt.Sprintf("0x%04X", sig),
			"profile", res.Profile.Name,
		)
	}

	s.phase = PhaseImageSelected
	c.reportProgress(s, Progress{Phase: PhaseImageSelected, Percentage: 10})

	return &Identified{s: s}, nil
}

// ProgramFuses writes the profile's programming fuses.
func (c *Controller) ProgramFuses(ctx context.Context, tok *Identified) (*Preprogrammed, error) {
	if tok == nil {
		return nil, ErrPhaseOrder
	}
	s := tok.s
	if err := c.check(s, PhaseImageSelected); err != nil {
		return nil, err
	}
	hw := context.WithoutCancel(ctx)

	c.logDebug("writing programming fuses", "session", s.id.String(), "fuses", s.profile.ProgramFuses.String())
	if err := c.fuses.ApplyFuses(hw, s.profile.ProgramFuses); err != nil {
		return nil, c.fail(hw, s, ReasonFuseWrite, fmt.Errorf("programming fuses: %w", err))
	}

	s.phase = PhaseFusesPreprogrammed
	c.reportProgress(s, Progress{Phase: PhaseFusesPreprogrammed, Percentage: 15})

	return &Preprogrammed{s: s}, nil
}

// Flash writes the profile's image.
func (c *Controller) Flash(ctx context.Context, tok *Preprogrammed) (*Flashed, error) {
	if tok == nil {
		return nil, ErrPhaseOrder
	}
	s := tok.s
	if err := c.check(s, PhaseFusesPreprogrammed); err != nil {
		return nil, err
	}
	hw := context.WithoutCancel(ctx)

	s.phase = PhaseFlashing
	c.indicator.Signal(PatternFlashing, 1)
	c.reportProgress(s, Progress{Phase: PhaseFlashing, Percentage: 15})

	onPage := func(st FlashStats) {
		c.reportProgress(s, Progress{
			Phase:        PhaseFlashing,
			Page:         st.Pages,
			TotalPages:   st.TotalPages,
			BytesWritten: st.Bytes,
			Percentage:   15 + float64(st.Pages)/float64(st.TotalPages)*75,
		})
	}

	stats, err := c.flash.writeImage(hw, s.profile.Image, s.profile.PageSize, onPage)
	s.flash = stats
	if err != nil {
		reason := ReasonFlashHardware
		var ferr *FlashError
		if errors.As(err, &ferr) && ferr.Kind == FlashMalformedImage {
			reason = ReasonFlashMalformed
		}
		return nil, c.fail(hw, s, reason, err)
	}

	c.logInfo("image written",
		"session", s.id.String(),
		"pages", stats.Pages,
		"bytes", stats.Bytes,
		"elapsed", stats.Elapsed.String(),
	)

	s.phase = PhaseFlashed
	c.reportProgress(s, Progress{
		Phase:        PhaseFlashed,
		Page:         stats.Pages,
		TotalPages:   stats.TotalPages,
		BytesWritten: stats.Bytes,
		Percentage:   90,
	})

	return &Flashed{s: s}, nil
}

// FinalizeFuses writes the profile's normal fuses. It can only be reached
// through a successful Flash.
func (c *Controller) FinalizeFuses(ctx context.Context, tok *Flashed) (*Finalized, error) {
	if tok == nil {
		return nil, ErrPhaseOrder
	}
	s := tok.s
	if err := c.check(s, PhaseFlashed); err != nil {
		return nil, err
	}
	hw := context.WithoutCancel(ctx)

	c.logDebug("writing normal fuses", "session", s.id.String(), "fuses", s.profile.NormalFuses.String())
	if err := c.fuses.ApplyFuses(hw, s.profile.NormalFuses); err != nil {
		return nil, c.fail(hw, s, ReasonFuseWrite, fmt.Errorf("normal fuses: %w", err))
	}

	s.phase = PhaseFusesFinalized
	c.reportProgress(s, Progress{Phase: PhaseFusesFinalized, Percentage: 95})

	return &Finalized{s: s}, nil
}

// Finish powers the target off and ends the session as succeeded. A failed
// power off does not fail the session; it is returned as Result.Warning.
func (c *Controller) Finish(ctx context.Context, tok *Finalized) (*Result, error) {
	if tok == nil {
		return nil, ErrPhaseOrder
	}
	s := tok.s
	if err := c.check(s, PhaseFusesFinalized); err != nil {
		return nil, err
	}
	hw := context.WithoutCancel(ctx)

	var warning error
	if err := c.power.PowerOff(hw); err != nil {
		warning = &PowerOffWarning{Err: err}
		c.logError("power off after programming failed", "session", s.id.String(), "error", err)
	}
	s.powered = c.power.IsPowered()

	s.phase = PhaseSucceeded
	result := c.result(s)
	result.Warning = warning

	if warning != nil {
		c.indicator.Signal(PatternWarning, 1)
	} else {
		c.indicator.Signal(PatternSuccess, 1)
	}

	c.reportProgress(s, Progress{
		Phase:        PhaseSucceeded,
		Page:         s.flash.Pages,
		TotalPages:   s.flash.TotalPages,
		BytesWritten: s.flash.Bytes,
		Percentage:   100,
	})

	c.logInfo("programming complete",
		"session", s.id.String(),
		"profile", s.profile.Name,
		"elapsed", result.Duration.String(),
	)

	c.finish(s, result)
	return result, nil
}

// fail ends s as failed. The target is forced off first; a power off error
// is only logged.
func (c *Controller) fail(ctx context.Context, s *Session, reason FailureReason, err error) error {
	serr := &SessionError{Reason: reason, Phase: s.phase, Err: err}

	if offErr := c.power.PowerOff(ctx); offErr != nil {
		c.logError("power off after failure failed", "session", s.id.String(), "error", offErr)
	}
	s.powered = c.power.IsPowered()

	s.phase = PhaseFailed
	result := c.result(s)
	result.Reason = reason
	result.Err = serr

	c.logError("session failed",
		"session", s.id.String(),
		"phase", serr.Phase.String(),
		"reason", reason.String(),
		"error", err,
	)

	c.indicator.SignalFailure(reason)
	c.reportProgress(s, Progress{Phase: PhaseFailed})

	c.finish(s, result)
	return serr
}

func (c *Controller) readSignature(ctx context.Context) (uint16, error) {
	ctx, cancel := withTimeout(ctx, c.config.CommandTimeout)
	defer cancel()

	return c.device.ReadSignature(ctx)
}

// check rejects tokens that do not belong to the active session or whose
// session has moved past want.
func (c *Controller) check(s *Session, want Phase) error {
	if s == nil || c.active.Load() != s || s.phase != want {
		return ErrPhaseOrder
	}
	return nil
}

func (c *Controller) result(s *Session) *Result {
	return &Result{
		SessionID: s.id,
		Phase:     s.phase,
		Signature: s.signature,
		Profile:   s.profile,
		Alias:     s.alias,
		Flash:     s.flash,
		Duration:  time.Since(s.startedAt),
	}
}

// finish records the result, frees the controller and notifies the caller.
func (c *Controller) finish(s *Session, result *Result) {
	s.result = result
	c.release(s)

	if c.config.ResultCallback != nil {
		c.config.ResultCallback(result)
	}
}

func (c *Controller) release(s *Session) {
	c.active.CompareAndSwap(s, nil)
}

// reportProgress calls the progress callback if configured.
func (c *Controller) reportProgress(s *Session, progress Progress) {
	if c.config.ProgressCallback != nil {
		progress.ElapsedTime = time.Since(s.startedAt)
		if progress.TotalPages == 0 && s.flash != nil {
			progress.TotalPages = s.flash.TotalPages
		}
		c.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Controller) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Controller) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Controller) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
