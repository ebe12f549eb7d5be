// Package programmer identifies an AVR target by its signature and drives it
// through fuse and flash programming.
//
// # Overview
//
// A session walks a fixed sequence of phases:
//
//	idle -> identifying -> image selected -> fuses preprogrammed
//	     -> flashing -> flashed -> fuses finalized -> succeeded
//
// Any step may instead end the session in the failed phase. Programming
// fuses put the chip into a configuration that accepts flashing; normal fuses
// are its runtime configuration and are written only after the image.
//
// # Basic Usage
//
//	ctrl := programmer.New(device, catalog.Builtin())
//
//	result, err := ctrl.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("programmed", result.Profile.Name)
//
// # Step by Step
//
// Each step consumes the token returned by the previous one, so a caller
// cannot write normal fuses before the flash step has produced a Flashed
// token:
//
//	s, _ := ctrl.Begin(ctx)
//	powered, err := ctrl.PowerOn(ctx, s)
//	identified, err := ctrl.Identify(ctx, powered)
//	pre, err := ctrl.ProgramFuses(ctx, identified)
//	flashed, err := ctrl.Flash(ctx, pre)
//	final, err := ctrl.FinalizeFuses(ctx, flashed)
//	result, err := ctrl.Finish(ctx, final)
//
// Reusing a token, or passing one from a finished session, returns
// ErrPhaseOrder without touching the target.
//
// # Failures
//
// Every failure is final for the session. The controller switches the
// target off, shows PatternError on the status indicator repeated
// FailureReason.Code() times, and returns a *SessionError wrapping the
// component error (*PowerError, *catalog.UnknownChipError, *FuseWriteError
// or *FlashError). A power off failure after a successful run is not a
// failure; it is reported as a *PowerOffWarning in Result.Warning.
//
// Operations are attempted once. Retrying is done by running a new session.
//
// # Timeouts and Cancellation
//
// Only Begin and PowerOn observe context cancellation. After the target is
// powered the steps run to completion; each hardware call is bounded by
// WithPowerTimeout, WithCommandTimeout and WithFlashTimeout and a timeout
// fails the session like any other hardware error.
package programmer
