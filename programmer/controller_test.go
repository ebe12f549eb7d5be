package programmer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/moffa90/go-autoprog/catalog"
	"github.com/moffa90/go-autoprog/simulator"
)

func newTestController(t *testing.T, sim *simulator.Target, image string, opts ...Option) *Controller {
	t.Helper()
	return New(sim, testCatalog(t, image), opts...)
}

// assertPoweredOff checks the controller and the device agree the target is off.
func assertPoweredOff(t *testing.T, ctrl *Controller, sim *simulator.Target) {
	t.Helper()
	if ctrl.IsPowered() {
		t.Error("controller still considers the target powered")
	}
	if sim.Powered() {
		t.Error("target is still powered")
	}
}

func TestRunSucceeds(t *testing.T) {
	sim := simulator.New(0x9507)
	ctrl := newTestController(t, sim, "")

	result, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Succeeded() || result.Phase != PhaseSucceeded {
		t.Fatalf("Phase = %s, want succeeded", result.Phase)
	}
	if result.Profile.Name != "atmega168" || result.Profile.PageSize != 128 {
		t.Errorf("Profile = %s/%d, want atmega168/128", result.Profile.Name, result.Profile.PageSize)
	}
	if result.Alias != nil {
		t.Errorf("direct match reported alias %s", result.Alias.Name)
	}
	if result.Warning != nil || result.Err != nil || result.Reason != ReasonNone {
		t.Errorf("unexpected outcome: warning=%v err=%v reason=%s", result.Warning, result.Err, result.Reason)
	}
	if result.Flash == nil || result.Flash.Pages != 3 {
		t.Errorf("Flash = %+v, want 3 pages", result.Flash)
	}

	if sim.Fuses() != testNormalFuses {
		t.Errorf("final fuses = %s, want normal fuses %s", sim.Fuses(), testNormalFuses)
	}
	if got := sim.Flash(0, 300); string(got) != string(testData(300)) {
		t.Error("flash does not hold the image")
	}
	assertPoweredOff(t, ctrl, sim)

	if ctrl.Active() != nil {
		t.Error("session still active after Run")
	}
}

func TestRunOperationOrder(t *testing.T) {
	sim := simulator.New(0x9507)
	ctrl := newTestController(t, sim, "")

	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ops := simulator.Filter(sim.Ops(),
		simulator.OpSetPower, simulator.OpReadSignature, simulator.OpWriteFuse, simulator.OpWriteFlashPage)

	var kinds []simulator.OpKind
	for _, op := range ops {
		kinds = append(kinds, op.Kind)
	}

	want := []simulator.OpKind{simulator.OpSetPower, simulator.OpReadSignature}
	for i := 0; i < catalog.NumFuses; i++ {
		want = append(want, simulator.OpWriteFuse)
	}
	want = append(want, simulator.OpWriteFlashPage, simulator.OpWriteFlashPage, simulator.OpWriteFlashPage)
	for i := 0; i < catalog.NumFuses; i++ {
		want = append(want, simulator.OpWriteFuse)
	}
	want = append(want, simulator.OpSetPower)

	if len(kinds) != len(want) {
		t.Fatalf("got ops %v\nwant %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("op %d = %s, want %s", i, kinds[i], want[i])
		}
	}

	// both fuse sets in category order, programming set first
	fuses := simulator.Filter(ops, simulator.OpWriteFuse)
	for i, set := range []catalog.FuseSet{testProgramFuses, testNormalFuses} {
		for j, cat := range catalog.FuseCategories() {
			op := fuses[i*catalog.NumFuses+j]
			v, _ := set.Get(cat)
			if op.Category != cat || op.Value != v {
				t.Errorf("fuse write %d = %s, want %s=0x%02X", i*catalog.NumFuses+j, op, cat, v)
			}
		}
	}
}

func TestRunAliasScenario(t *testing.T) {
	sim := simulator.New(0x9586)
	ctrl := newTestController(t, sim, "")

	result, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Signature != 0x9586 {
		t.Errorf("Signature = 0x%04X, want raw 0x9586", result.Signature)
	}
	if result.Alias == nil || result.Alias.CanonicalSignature != 0x9507 {
		t.Errorf("Alias = %+v, want hop to 0x9507", result.Alias)
	}
	if result.Profile.Name != "atmega168" {
		t.Errorf("Profile = %s, want atmega168", result.Profile.Name)
	}
}

func TestRunBuiltinCatalog(t *testing.T) {
	for _, p := range catalog.Builtin().Profiles() {
		t.Run(p.Name, func(t *testing.T) {
			sim := simulator.New(p.Signature)
			ctrl := New(sim, catalog.Builtin())

			result, err := ctrl.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if result.Profile.Signature != p.Signature {
				t.Errorf("programmed as 0x%04X", result.Profile.Signature)
			}
			if sim.Fuses() != p.NormalFuses {
				t.Errorf("fuses = %s, want %s", sim.Fuses(), p.NormalFuses)
			}
		})
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name       string
		signature  uint16
		image      string
		setup      func(*simulator.Target)
		wantReason FailureReason
		wantPhase  Phase
		wantFuses  int
		wantPages  int
	}{
		{
			name:       "power on fails",
			signature:  0x9507,
			setup:      func(s *simulator.Target) { s.FailPower(true, errors.New("brownout")) },
			wantReason: ReasonPowerFault,
			wantPhase:  PhaseIdle,
		},
		{
			name:       "signature unreadable",
			signature:  0x9507,
			setup:      func(s *simulator.Target) { s.FailSignature(errors.New("no response")) },
			wantReason: ReasonUnknownChip,
			wantPhase:  PhaseIdentifying,
		},
		{
			name:       "unknown chip",
			signature:  0x1E00,
			wantReason: ReasonUnknownChip,
			wantPhase:  PhaseIdentifying,
		},
		{
			name:       "programming fuse rejected",
			signature:  0x9507,
			setup:      func(s *simulator.Target) { s.FailFuse(catalog.FuseHigh, errors.New("no ack")) },
			wantReason: ReasonFuseWrite,
			wantPhase:  PhaseImageSelected,
			wantFuses:  3,
		},
		{
			name:       "bad checksum in image",
			signature:  0x9507,
			image:      "bad",
			wantReason: ReasonFlashMalformed,
			wantPhase:  PhaseFlashing,
			wantFuses:  catalog.NumFuses,
		},
		{
			name:       "page write fails",
			signature:  0x9507,
			setup:      func(s *simulator.Target) { s.FailPage(0x100, errors.New("verify failed")) },
			wantReason: ReasonFlashHardware,
			wantPhase:  PhaseFlashing,
			wantFuses:  catalog.NumFuses,
			wantPages:  3,
		},
		{
			name:      "normal fuse verify fails",
			signature: 0x9507,
			// the programming set writes 0x01 here too, so stick it to that value
			setup:      func(s *simulator.Target) { s.StickFuse(catalog.FuseReserved, testProgramFuses.Reserved) },
			wantReason: ReasonFuseWrite,
			wantPhase:  PhaseFlashed,
			wantFuses:  2 * catalog.NumFuses,
			wantPages:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := simulator.New(tt.signature)
			if tt.setup != nil {
				tt.setup(sim)
			}
			image := tt.image
			if image == "bad" {
				image = corruptChecksum(t, testImage(t, 0, 300), 5)
			}

			var callbackResult *Result
			ctrl := newTestController(t, sim, image,
				WithResultCallback(func(r *Result) { callbackResult = r }),
			)

			result, err := ctrl.Run(context.Background())

			var serr *SessionError
			if !errors.As(err, &serr) {
				t.Fatalf("error = %v, want *SessionError", err)
			}
			if serr.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s", serr.Reason, tt.wantReason)
			}
			if serr.Phase != tt.wantPhase {
				t.Errorf("failed in %s, want %s", serr.Phase, tt.wantPhase)
			}

			if result == nil || result.Phase != PhaseFailed || result.Succeeded() {
				t.Fatalf("result = %+v, want failed", result)
			}
			if result.Err != err {
				t.Errorf("Result.Err = %v, want the returned error", result.Err)
			}
			if callbackResult != result {
				t.Error("result callback did not receive the result")
			}

			assertPoweredOff(t, ctrl, sim)

			ops := sim.Ops()
			if n := len(simulator.Filter(ops, simulator.OpWriteFuse)); n != tt.wantFuses {
				t.Errorf("got %d fuse writes, want %d", n, tt.wantFuses)
			}
			if n := len(simulator.Filter(ops, simulator.OpWriteFlashPage)); n != tt.wantPages {
				t.Errorf("got %d page writes, want %d", n, tt.wantPages)
			}

			// last pattern is the error class
			patterns := simulator.Filter(ops, simulator.OpEmitPattern)
			last := patterns[len(patterns)-1]
			if last.Pattern != uint32(PatternError) || last.Count != tt.wantReason.Code() {
				t.Errorf("last pattern = %s, want error x%d", last, tt.wantReason.Code())
			}

			if ctrl.Active() != nil {
				t.Error("failed session still active")
			}
		})
	}
}

// Normal fuses are written only once every page of the image was written.
func TestNormalFusesNeverBeforeFlash(t *testing.T) {
	faults := []func(*simulator.Target){
		nil,
		func(s *simulator.Target) { s.FailPage(0x000, errors.New("fault")) },
		func(s *simulator.Target) { s.FailPage(0x080, errors.New("fault")) },
		func(s *simulator.Target) { s.FailPage(0x100, errors.New("fault")) },
		func(s *simulator.Target) { s.FailFuse(catalog.FuseProt, errors.New("fault")) },
		func(s *simulator.Target) { s.FailFuse(catalog.FuseExt, errors.New("fault")) },
		func(s *simulator.Target) { s.FailSignature(errors.New("fault")) },
		func(s *simulator.Target) { s.FailPower(false, errors.New("fault")) },
	}

	for i, fault := range faults {
		sim := simulator.New(0x9507)
		if fault != nil {
			fault(sim)
		}
		ctrl := newTestController(t, sim, "")
		_, _ = ctrl.Run(context.Background())

		pagesOK := 0
		pageFailed := false
		for _, op := range sim.Ops() {
			switch op.Kind {
			case simulator.OpWriteFlashPage:
				if op.Err != nil {
					pageFailed = true
				} else {
					pagesOK++
				}
			case simulator.OpWriteFuse:
				if pagesOK == 0 && pageFailed {
					t.Errorf("case %d: fuse write after failed flash: %s", i, op)
				}
				if pagesOK > 0 && (pagesOK < 3 || pageFailed) {
					t.Errorf("case %d: fuse write after incomplete flash: %s", i, op)
				}
			}
		}
	}
}

func TestRunPowerOffFailureIsWarning(t *testing.T) {
	sim := simulator.New(0x9507)
	sim.FailPower(false, errors.New("relay stuck"))
	logger := &MockLogger{}
	ctrl := newTestController(t, sim, "", WithLogger(logger))

	result, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("Phase = %s, want succeeded", result.Phase)
	}

	var warning *PowerOffWarning
	if !errors.As(result.Warning, &warning) {
		t.Fatalf("Warning = %v, want *PowerOffWarning", result.Warning)
	}
	if ctrl.IsPowered() {
		t.Error("attempted power off should leave the target considered off")
	}

	patterns := simulator.Filter(sim.Ops(), simulator.OpEmitPattern)
	if last := patterns[len(patterns)-1]; last.Pattern != uint32(PatternWarning) {
		t.Errorf("last pattern = %s, want warning", last)
	}
	if !logger.hasError("power off after programming failed") {
		t.Errorf("warning not logged: %v", logger.errorMsgs)
	}
}

func TestFailedPowerOnStillPowersOff(t *testing.T) {
	sim := simulator.New(0x9507)
	sim.FailPower(true, errors.New("brownout"))
	ctrl := newTestController(t, sim, "")

	_, _ = ctrl.Run(context.Background())

	power := simulator.Filter(sim.Ops(), simulator.OpSetPower)
	if len(power) != 2 || !power[0].On || power[1].On {
		t.Errorf("power ops = %v, want on then forced off", power)
	}
	assertPoweredOff(t, ctrl, sim)
}

func TestRunTimeoutIsHardwareFault(t *testing.T) {
	sim := simulator.New(0x9507, simulator.WithLatency(50*time.Millisecond))
	ctrl := newTestController(t, sim, "",
		WithPowerTimeout(time.Second),
		WithCommandTimeout(time.Second),
		WithFlashTimeout(5*time.Millisecond),
	)

	result, err := ctrl.Run(context.Background())

	var serr *SessionError
	if !errors.As(err, &serr) || serr.Reason != ReasonFlashHardware {
		t.Fatalf("error = %v, want flash hardware fault", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want wrapped DeadlineExceeded", err)
	}
	if result.Flash == nil || result.Flash.Pages != 0 {
		t.Errorf("Flash = %+v, want zero pages written", result.Flash)
	}
	assertPoweredOff(t, ctrl, sim)
}

func TestCancelBeforePowerOn(t *testing.T) {
	t.Run("cancelled before begin", func(t *testing.T) {
		sim := simulator.New(0x9507)
		ctrl := newTestController(t, sim, "")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := ctrl.Run(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if result != nil {
			t.Errorf("result = %+v, want nil", result)
		}
		if len(sim.Ops()) != 0 {
			t.Errorf("cancelled run touched the target: %v", sim.Ops())
		}
	})

	t.Run("cancelled between begin and power on", func(t *testing.T) {
		sim := simulator.New(0x9507)
		ctrl := newTestController(t, sim, "")

		ctx, cancel := context.WithCancel(context.Background())
		s, err := ctrl.Begin(ctx)
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		cancel()

		if _, err := ctrl.PowerOn(ctx, s); !errors.Is(err, context.Canceled) {
			t.Fatalf("PowerOn error = %v, want context.Canceled", err)
		}
		if n := len(simulator.Filter(sim.Ops(), simulator.OpSetPower)); n != 0 {
			t.Errorf("target was switched %d times", n)
		}
		if ctrl.Active() != nil {
			t.Error("cancelled session still active")
		}
	})
}

func TestCancelAfterPowerOnIsIgnored(t *testing.T) {
	sim := simulator.New(0x9507)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := newTestController(t, sim, "",
		WithProgressCallback(func(p Progress) {
			if p.Phase == PhaseIdentifying {
				cancel()
			}
		}),
	)

	result, err := ctrl.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Succeeded() {
		t.Errorf("Phase = %s, want succeeded", result.Phase)
	}
}

func TestSessionActive(t *testing.T) {
	sim := simulator.New(0x9507)
	ctrl := newTestController(t, sim, "")
	ctx := context.Background()

	s, err := ctrl.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := ctrl.Begin(ctx); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Begin error = %v, want ErrSessionActive", err)
	}
	if _, err := ctrl.Run(ctx); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Run error = %v, want ErrSessionActive", err)
	}

	if err := ctrl.Abandon(s); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := ctrl.Run(ctx); err != nil {
		t.Errorf("Run after Abandon: %v", err)
	}
}

func TestConcurrentBegin(t *testing.T) {
	sim := simulator.New(0x9507)
	ctrl := newTestController(t, sim, "")

	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ctrl.Begin(context.Background()); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if started != 1 {
		t.Errorf("%d sessions started, want exactly 1", started)
	}
}

func TestStepTokens(t *testing.T) {
	sim := simulator.New(0x9507)
	ctrl := newTestController(t, sim, "")
	ctx := context.Background()

	s, _ := ctrl.Begin(ctx)
	powered, err := ctrl.PowerOn(ctx, s)
	if err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	if s.Phase() != PhaseIdentifying || !s.Powered() {
		t.Errorf("after PowerOn: phase %s powered %v", s.Phase(), s.Powered())
	}

	// the session token is spent once powered
	if _, err := ctrl.PowerOn(ctx, s); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("second PowerOn error = %v, want ErrPhaseOrder", err)
	}

	identified, err := ctrl.Identify(ctx, powered)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if identified.Profile().Name != "atmega168" {
		t.Errorf("Profile = %s", identified.Profile().Name)
	}
	if _, err := ctrl.Identify(ctx, powered); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("replayed Identify error = %v, want ErrPhaseOrder", err)
	}

	pre, err := ctrl.ProgramFuses(ctx, identified)
	if err != nil {
		t.Fatalf("ProgramFuses: %v", err)
	}
	flashed, err := ctrl.Flash(ctx, pre)
	if err != nil {
		t.Fatalf("Flash: %v", err)
	}
	if flashed.Stats().Pages != 3 {
		t.Errorf("Stats().Pages = %d, want 3", flashed.Stats().Pages)
	}
	if _, err := ctrl.Flash(ctx, pre); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("replayed Flash error = %v, want ErrPhaseOrder", err)
	}

	final, err := ctrl.FinalizeFuses(ctx, flashed)
	if err != nil {
		t.Fatalf("FinalizeFuses: %v", err)
	}
	result, err := ctrl.Finish(ctx, final)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if s.Result() != result || s.Phase() != PhaseSucceeded || s.Powered() {
		t.Errorf("session not finished: phase %s powered %v", s.Phase(), s.Powered())
	}

	// tokens of a finished session are dead
	if _, err := ctrl.FinalizeFuses(ctx, flashed); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("FinalizeFuses after Finish error = %v, want ErrPhaseOrder", err)
	}
	if _, err := ctrl.Finish(ctx, final); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("second Finish error = %v, want ErrPhaseOrder", err)
	}
}

func TestStepTokensFromOtherSession(t *testing.T) {
	ctx := context.Background()

	ctrlA := newTestController(t, simulator.New(0x9507), "")
	ctrlB := newTestController(t, simulator.New(0x9507), "")

	sA, _ := ctrlA.Begin(ctx)
	poweredA, err := ctrlA.PowerOn(ctx, sA)
	if err != nil {
		t.Fatalf("PowerOn: %v", err)
	}

	if _, err := ctrlB.Identify(ctx, poweredA); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("foreign token error = %v, want ErrPhaseOrder", err)
	}
	if _, err := ctrlB.Identify(ctx, nil); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("nil token error = %v, want ErrPhaseOrder", err)
	}
	if _, err := ctrlB.Flash(ctx, &Preprogrammed{}); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("zero token error = %v, want ErrPhaseOrder", err)
	}
}

func TestAbandonAfterPowerOn(t *testing.T) {
	sim := simulator.New(0x9507)
	ctrl := newTestController(t, sim, "")
	ctx := context.Background()

	s, _ := ctrl.Begin(ctx)
	if _, err := ctrl.PowerOn(ctx, s); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	if err := ctrl.Abandon(s); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("Abandon of powered session error = %v, want ErrPhaseOrder", err)
	}
}

func TestIndicatorPanicDoesNotAbort(t *testing.T) {
	sim := simulator.New(0x9507)
	sim.PanicOnPattern()
	logger := &MockLogger{}
	ctrl := newTestController(t, sim, "", WithLogger(logger))

	result, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Succeeded() {
		t.Errorf("Phase = %s, want succeeded", result.Phase)
	}
	if !logger.hasError("status indicator failed") {
		t.Error("indicator panic was not logged")
	}
}

func TestProgressReports(t *testing.T) {
	sim := simulator.New(0x9507)

	var reports []Progress
	ctrl := newTestController(t, sim, "",
		WithProgressCallback(func(p Progress) { reports = append(reports, p) }),
	)

	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(reports) == 0 {
		t.Fatal("no progress reported")
	}
	last := reports[len(reports)-1]
	if last.Phase != PhaseSucceeded || last.Percentage != 100 {
		t.Errorf("last report = %+v, want succeeded at 100%%", last)
	}
	if last.TotalPages != 3 || last.Page != 3 || last.BytesWritten != 300 {
		t.Errorf("last report pages %d/%d bytes %d", last.Page, last.TotalPages, last.BytesWritten)
	}

	prev := -1.0
	pages := 0
	for _, r := range reports {
		if r.Percentage < prev {
			t.Errorf("progress went backwards: %.1f after %.1f", r.Percentage, prev)
		}
		prev = r.Percentage
		if r.Phase == PhaseFlashing && r.Page > 0 {
			pages++
		}
	}
	if pages != 3 {
		t.Errorf("got %d page reports, want 3", pages)
	}
}

// Page reports belong to the Flash step that produced them: the shared
// FlashProgrammer reports nothing on its own between sessions.
func TestFlashProgressScopedToSession(t *testing.T) {
	sim := simulator.New(0x9507)

	pages := 0
	ctrl := newTestController(t, sim, "",
		WithProgressCallback(func(p Progress) {
			if p.Phase == PhaseFlashing && p.Page > 0 {
				pages++
			}
		}),
	)

	for i := 0; i < 2; i++ {
		if _, err := ctrl.Run(context.Background()); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}
	if pages != 6 {
		t.Fatalf("got %d page reports over two sessions, want 6", pages)
	}

	if err := sim.SetPower(context.Background(), true); err != nil {
		t.Fatalf("SetPower: %v", err)
	}
	if _, err := ctrl.flash.WriteImage(context.Background(), testImage(t, 0, 300), 128); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	if pages != 6 {
		t.Errorf("WriteImage outside a session reported %d pages", pages-6)
	}
}

func TestNewPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{name: "nil device", fn: func() { New(nil, catalog.Builtin()) }},
		{name: "nil catalog", fn: func() { New(simulator.New(0), nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("New did not panic")
				}
			}()
			tt.fn()
		})
	}
}
