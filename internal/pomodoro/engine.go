package pomodoro

import (
	"context"
	"log"
	"sync"
	"time"

	"ptm/backend/internal/model"
	"ptm/backend/internal/storage"
)

const DefaultTickInterval = time.Second

const notifyTimeout = 10 * time.Second

// TaskCounter records a finished focus session on a task.
type TaskCounter interface {
	IncrementCompletedPomodoros(taskID string) (model.Task, error)
}

type Options struct {
	TickInterval time.Duration
	Tasks        TaskCounter
	Notifier     Notifier
	Logger       *log.Logger
}

// Engine drives State with a ticker that exists only while the timer runs.
type Engine struct {
	mu    sync.Mutex
	state State

	// driverGen invalidates ticks from a driver that has been replaced.
	driverGen uint64
	stop      chan struct{}
	closed    bool

	gateway  *storage.Gateway
	tasks    TaskCounter
	notifier Notifier
	interval time.Duration
	logger   *log.Logger

	notifications sync.WaitGroup
}

func NewEngine(gateway *storage.Gateway, opts Options) *Engine {
	e := &Engine{
		gateway:  gateway,
		tasks:    opts.Tasks,
		notifier: opts.Notifier,
		interval: opts.TickInterval,
		logger:   opts.Logger,
	}
	if e.interval <= 0 {
		e.interval = DefaultTickInterval
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	e.state = InitialState(e.loadSettings())
	return e
}

func (e *Engine) loadSettings() model.PomodoroSettings {
	settings, err := LoadSettings(e.gateway)
	if err != nil {
		e.logger.Printf("pomodoro: load settings failed, using defaults: %v", err)
	}
	return settings
}

// ReloadSettings applies the persisted settings, for example after an import.
func (e *Engine) ReloadSettings() State {
	return e.dispatch(ApplySettings{Settings: e.loadSettings()})
}

func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

func (e *Engine) Start(taskID *string) State {
	return e.dispatch(Start{TaskID: taskID})
}

func (e *Engine) Pause() State {
	return e.dispatch(Pause{})
}

func (e *Engine) Resume() State {
	return e.dispatch(Resume{})
}

func (e *Engine) Reset() State {
	return e.dispatch(Reset{})
}

func (e *Engine) Skip() State {
	return e.dispatch(Skip{})
}

// Tick advances the countdown by one second.
func (e *Engine) Tick() State {
	return e.dispatch(Tick{})
}

// UpdateSettings merges patch over the current settings and persists the
// result. Nothing changes when the save fails.
func (e *Engine) UpdateSettings(patch SettingsPatch) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := SanitizeSettings(patch, e.state.Settings)
	if err := e.gateway.Save(storage.KeyPomodoroSettings, next); err != nil {
		return e.state.clone(), err
	}
	e.applyLocked(ApplySettings{Settings: next})
	return e.state.clone(), nil
}

// Close stops the driver and waits for pending notifications.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.stopDriverLocked()
	e.mu.Unlock()

	e.notifications.Wait()
}

func (e *Engine) dispatch(a Action) State {
	e.mu.Lock()
	completion := e.applyLocked(a)
	snapshot := e.state.clone()
	e.mu.Unlock()

	e.runSideEffects(completion)
	return snapshot
}

// completion describes a finished phase whose side effects run after the
// engine lock is released.
type completion struct {
	phase  model.Phase
	taskID *string
}

// applyLocked reduces a and, when a running phase reaches zero, advances to
// the next phase in the same step so the completion happens exactly once.
func (e *Engine) applyLocked(a Action) *completion {
	wasRunning := e.state.IsRunning
	e.state = Reduce(e.state, a)

	var done *completion
	if e.state.Completed() {
		done = &completion{phase: e.state.Phase, taskID: clonePtr(e.state.CurrentTaskID)}
		e.state = Reduce(e.state, Skip{})
	}

	if wasRunning != e.state.IsRunning {
		e.stopDriverLocked()
		if e.state.IsRunning {
			e.startDriverLocked()
		}
	}
	return done
}

func (e *Engine) runSideEffects(done *completion) {
	if done == nil || done.phase != model.PhaseFocus {
		return
	}

	if done.taskID != nil && e.tasks != nil {
		if _, err := e.tasks.IncrementCompletedPomodoros(*done.taskID); err != nil {
			e.logger.Printf("pomodoro: record session on task %s failed: %v", *done.taskID, err)
		}
	}

	if e.notifier == nil {
		return
	}
	e.notifications.Add(1)
	go func() {
		defer e.notifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		deliver(ctx, e.notifier, e.logger, focusCompleteTitle, focusCompleteBody)
	}()
}

func (e *Engine) startDriverLocked() {
	if e.closed {
		return
	}
	e.driverGen++
	gen := e.driverGen
	stop := make(chan struct{})
	e.stop = stop

	ticker := time.NewTicker(e.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !e.tickFrom(gen) {
					return
				}
			}
		}
	}()
}

func (e *Engine) stopDriverLocked() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
	e.driverGen++
}

// tickFrom ticks on behalf of driver gen and reports whether that driver is
// still current.
func (e *Engine) tickFrom(gen uint64) bool {
	e.mu.Lock()
	if gen != e.driverGen {
		e.mu.Unlock()
		return false
	}
	done := e.applyLocked(Tick{})
	e.mu.Unlock()

	e.runSideEffects(done)
	return true
}

// driverActive reports whether a ticker goroutine is currently installed.
func (e *Engine) driverActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop != nil
}
