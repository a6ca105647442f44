// Package lockdown implements the single finite state machine that
// owns the exam session: Idle, Initializing, PreCheck, Locked,
// ExamActive, ShuttingDown, Error. It sequences the integrity
// assessor, process guard, and confinement layer through a fixed
// engage order and its strict reverse on release.
package lockdown

import (
	"context"
	"sync"
	"time"

	"github.com/openlock/agent/internal/config"
	"github.com/openlock/agent/internal/logger"
	"github.com/openlock/agent/internal/model"
	"github.com/openlock/agent/internal/security/confinement"
	"github.com/openlock/agent/internal/security/integrity"
	"github.com/openlock/agent/internal/security/procguard"
)

// Observer receives every broadcast Event on a single channel, per the
// typed event-enum redesign: no per-component callback interfaces.
type Observer interface {
	Emit(event model.Event)
}

// Engine is the lockdown state machine. All mutation happens under mu;
// state reads for external callers go through State().
type Engine struct {
	mu    sync.Mutex
	state model.LockdownState

	examConfig *model.ExamConfiguration
	integrity  *integrity.Service
	procGuard  *procguard.Manager
	confine    *confinement.Confinement
	observers  []Observer

	lastError *model.StructuredError
}

func NewEngine() *Engine {
	return &Engine{state: model.StateIdle}
}

func (e *Engine) State() model.LockdownState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) LastError() *model.StructuredError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// AddObserver registers a sink for every broadcast Event, e.g. the
// audit trail or a UI status bar.
func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine) Emit(event model.Event) {
	e.mu.Lock()
	observers := append([]Observer(nil), e.observers...)
	e.mu.Unlock()

	for _, o := range observers {
		o.Emit(event)
	}
}

func (e *Engine) transition(to model.LockdownState) {
	e.mu.Lock()
	from := e.state
	e.state = to
	e.mu.Unlock()

	logger.Info("lockdown state transition", "from", from, "to", to)
	e.Emit(model.Event{Kind: model.EventStateChanged, Time: time.Now(), State: to})
}

func (e *Engine) fail(err *model.StructuredError) {
	e.mu.Lock()
	e.lastError = err
	e.state = model.StateError
	e.mu.Unlock()

	logger.Error("lockdown engine error", "kind", err.Kind, "message", err.Message)
	e.Emit(model.Event{
		Kind:      model.EventError,
		Time:      time.Now(),
		State:     model.StateError,
		Message:   err.Message,
		ErrorKind: err.Kind,
	})
}

// Initialize validates and adopts the exam configuration. It is the
// only transition into Locked's precondition state that runs before
// any lockdown surface exists.
func (e *Engine) Initialize(cfg *model.ExamConfiguration) error {
	if e.State() != model.StateIdle {
		return model.NewError(model.ErrConfigParseFailed, "initialize called outside Idle state")
	}

	e.transition(model.StateInitializing)

	if cfg.StartURL == "" {
		err := model.NewError(model.ErrConfigParseFailed, "exam configuration has no start URL")
		e.fail(err)
		return err
	}

	e.mu.Lock()
	e.examConfig = cfg
	e.mu.Unlock()

	appCfg := config.Get()
	e.integrity = integrity.NewService(integrity.AssessorOptions{
		DetectVM:            cfg.Security.DetectVM,
		DetectDebugger:      cfg.Security.DetectDebugger,
		DigestAlgorithm:     cfg.Security.SelfDigestAlgorithm,
	}, &integrityReporter{engine: e})

	pgCfg := appCfg.Security.ProcGuard
	pgCfg.Allowlist = append(pgCfg.Allowlist, cfg.Security.ProcessAllowlist...)
	pgCfg.ExtraBlocklist = append(pgCfg.ExtraBlocklist, cfg.Security.ProcessBlocklist...)
	pgCfg.BlocklistPatterns = append(pgCfg.BlocklistPatterns, cfg.Security.BlocklistPatterns...)
	e.procGuard = procguard.NewManagerFromConfig(pgCfg, &engineSink{engine: e})

	e.confine = confinement.NewConfinement(config.ConfinementConfig{
		Fullscreen:       cfg.Kiosk.Fullscreen,
		BlockVTSwitch:    cfg.Kiosk.BlockVTSwitch,
		ClipboardScrubMS: appCfg.Security.Confinement.ClipboardScrubMS,
		PrintSuspendMS:   appCfg.Security.Confinement.PrintSuspendMS,
	}, &engineSink{engine: e})

	e.transition(model.StateIdle)
	return nil
}

// EngageLockdown runs PreCheck and, on success, raises every
// confinement surface in the fixed order: integrity check, process
// pre-scan, kiosk, process guard monitor start, input lockdown.
func (e *Engine) EngageLockdown(ctx context.Context) error {
	if e.State() != model.StateIdle {
		return model.NewError(model.ErrConfinementSubsystemFailed, "engageLockdown called outside Idle state")
	}

	e.transition(model.StatePreCheck)

	report, err := e.integrity.Assessor().PerformFullCheck(ctx)
	if err != nil {
		fail := model.NewError(model.ErrConfinementSubsystemFailed, "integrity pre-check failed to run: %v", err)
		e.fail(fail)
		return fail
	}
	if report.Blocking() {
		kind := blockingErrorKind(report)
		fail := model.NewError(kind, "integrity pre-check failed: vm=%v debugger=%v tampered=%v preload=%v",
			report.VMDetected, report.DebuggerDetected, report.BinaryTampered, report.LDPreloadDetected)
		e.fail(fail)
		return fail
	}

	procs, err := procguard.Scan(ctx)
	if err != nil {
		fail := model.NewError(model.ErrConfinementSubsystemFailed, "process pre-scan failed: %v", err)
		e.fail(fail)
		return fail
	}
	if blocked := firstBlocked(procs, e.procGuard.IsBlocked); blocked != nil {
		fail := model.NewError(model.ErrBlockedProcessesPresent, "blocked process present before engage: %s (pid %d)", blocked.Name, blocked.PID)
		e.fail(fail)
		return fail
	}

	// Everything past this point is a warn-and-continue step: it
	// degrades protection but is not a reason to abandon the exam.
	if err := e.confine.EngageKiosk(ctx); err != nil {
		logger.Warn("confinement kiosk engage reported an error, continuing", "error", err)
		e.Emit(model.Event{Kind: model.EventError, Time: time.Now(), Message: err.Error(), ErrorKind: model.ErrConfinementSubsystemFailed})
	}

	e.procGuard.Start(pollInterval(config.Get().Security.ProcGuard.CheckInterval))
	e.integrity.StartMonitoring(config.Get().Security.Integrity.CheckInterval)

	e.confine.EngageInputLockdown()

	e.transition(model.StateLocked)
	e.Emit(model.Event{Kind: model.EventLockdownEngaged, Time: time.Now(), State: model.StateLocked})
	return nil
}

// StartExam moves Locked to ExamActive once the browser surface has
// actually loaded the start URL.
func (e *Engine) StartExam() error {
	if e.State() != model.StateLocked {
		return model.NewError(model.ErrConfinementSubsystemFailed, "startExam called outside Locked state")
	}
	e.transition(model.StateExamActive)
	return nil
}

// ReleaseLockdown tears every sub-guard down in strict reverse order.
// If examConfig.ExitPassword is non-empty, secret must match it or the
// call returns without transitioning.
func (e *Engine) ReleaseLockdown(ctx context.Context, secret string) error {
	state := e.State()
	if state != model.StateLocked && state != model.StateExamActive {
		return model.NewError(model.ErrConfinementSubsystemFailed, "releaseLockdown called outside Locked/ExamActive state")
	}

	e.mu.Lock()
	expected := e.examConfig.ExitPassword
	e.mu.Unlock()

	if expected != "" && secret != expected {
		err := model.NewError(model.ErrExitSecretMismatch, "exit secret does not match")
		e.Emit(model.Event{Kind: model.EventError, Time: time.Now(), Message: err.Message, ErrorKind: model.ErrExitSecretMismatch})
		return err
	}

	e.transition(model.StateShuttingDown)

	// Input lockdown was engaged last, so it is released first; the
	// kiosk, engaged first, is released last by confine.Release.
	e.confine.Print.Release()
	e.confine.Clipboard.Release()
	e.confine.Shortcuts.Release()
	e.integrity.StopMonitoring()
	e.procGuard.Stop()
	if err := e.confine.Release(); err != nil {
		logger.Warn("confinement release reported an error", "error", err)
	}

	e.Emit(model.Event{Kind: model.EventLockdownReleased, Time: time.Now(), State: model.StateIdle})
	e.transition(model.StateIdle)
	return nil
}

// OnKeyEvent forwards a renderer key event to the shortcut filter.
func (e *Engine) OnKeyEvent(evt confinement.KeyEvent) bool {
	e.mu.Lock()
	confine := e.confine
	e.mu.Unlock()
	if confine == nil {
		return false
	}
	return confine.OnKeyEvent(evt)
}

func pollInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 1 * time.Second
	}
	return d
}

func blockingErrorKind(r *model.IntegrityReport) model.ErrorKind {
	switch {
	case r.VMDetected:
		return model.ErrIntegrityVMDetected
	case r.DebuggerDetected:
		return model.ErrIntegrityDebuggerDetected
	case r.BinaryTampered:
		return model.ErrIntegrityBinaryTampered
	case r.LDPreloadDetected:
		return model.ErrIntegrityPreloadDetected
	default:
		return model.ErrUnknown
	}
}

func firstBlocked(procs []model.ProcessInfo, isBlocked func(name, cmdline, exe string) bool) *model.ProcessInfo {
	for _, p := range procs {
		if isBlocked(p.Name, p.Cmdline, p.Exe) {
			proc := p
			return &proc
		}
	}
	return nil
}
