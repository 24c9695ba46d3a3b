// SPDX-License-Identifier: BSD-3-Clause

package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GenorTG/assistant-launcher/pkg/log"
	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/pkg/procgroup"
	"github.com/GenorTG/assistant-launcher/pkg/state"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
	"github.com/GenorTG/assistant-launcher/service/health"
	"github.com/GenorTG/assistant-launcher/service/installer"
	"github.com/GenorTG/assistant-launcher/service/registry"
)

// prober is the subset of *health.Prober a Controller needs; narrowed to
// an interface so tests can substitute a fake without a real listener.
type prober interface {
	Probe(ctx context.Context, t health.Target) (bool, error)
	PollUntilReady(ctx context.Context, t health.Target) (bool, error)
}

// installRunner is the subset of *installer.Runner a Controller needs.
type installRunner interface {
	Run(ctx context.Context, serviceID string, recipe registry.Recipe, sink eventsink.Sink) (installer.Result, error)
}

// reclaimer is the subset of *portreg.Registry a Controller needs.
type reclaimer interface {
	Reclaim(ctx context.Context, port int, excludePID int) error
}

// run tracks the one in-flight child process a Controller owns between a
// successful Start and its eventual exit.
type run struct {
	cmd      *exec.Cmd
	cancel   context.CancelFunc
	exited   chan struct{}
	exitCode int
	waitErr  error
}

// Status is the runtime snapshot exposed to callers: state plus
// the installed and ready_confirmed derived booleans.
type Status struct {
	ServiceID      string
	State          string
	Installed      bool
	ReadyConfirmed bool
	StartTime      time.Time
	LastError      *Error
	Port           int
}

// Controller owns one supervised service's entire lifecycle.
type Controller struct {
	svc       registry.Service
	cfg       *Config
	sink      eventsink.Sink
	machine   *state.Machine
	health    prober
	installer installRunner
	ports     reclaimer
	adapter   platform.Adapter
	group     *procgroup.Manager

	// actionMu is the single-slot mutex serializing per-service actions.
	// Start/Stop block on it (so concurrent start/stop requests for the
	// same service serialize rather than race); Install only TryLocks it
	// and reports ErrBusy immediately rather than queuing behind a
	// possibly multi-minute install already in flight.
	actionMu sync.Mutex

	mu        sync.Mutex
	startTime time.Time
	lastErr   *Error
	current   *run

	readyConfirmed atomic.Bool

	installCacheMu     sync.Mutex
	installCacheAt     time.Time
	installCacheOK     bool
	installCacheReason string
}

// New builds a Controller for svc. ports and group may be nil: a nil
// ports skips port reclamation (tests, or ports already guaranteed
// free); a nil group means children are spawned without joining a
// shared process group.
func New(svc registry.Service, sink eventsink.Sink, h prober, inst installRunner, ports reclaimer, adapter platform.Adapter, group *procgroup.Manager, opts ...Option) (*Controller, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	c := &Controller{
		svc:       svc,
		cfg:       cfg,
		sink:      sink,
		health:    h,
		installer: inst,
		ports:     ports,
		adapter:   adapter,
		group:     group,
	}
	m, err := state.NewServiceLifecycle(svc.ID, state.WithLifecycleBroadcast(c.broadcast))
	if err != nil {
		return nil, err
	}
	c.machine = m
	return c, nil
}

// ID returns the controlled service's id.
func (c *Controller) ID() string { return c.svc.ID }

func (c *Controller) broadcast(machineName, previous, current, trigger string) error {
	c.sink.Write(eventsink.StateChanged(machineName, previous, current, trigger))
	return nil
}

func (c *Controller) tryLock() bool { return c.actionMu.TryLock() }
func (c *Controller) unlock()       { c.actionMu.Unlock() }

func (c *Controller) setLastErr(e *Error) {
	c.mu.Lock()
	c.lastErr = e
	c.mu.Unlock()
}

// Status returns a point-in-time snapshot. It does not take the action
// slot: a Status call never blocks on or behind a concurrent Start/Stop/
// Install.
func (c *Controller) Status(ctx context.Context) Status {
	installed, _ := c.checkInstalledCached()
	c.mu.Lock()
	st, lastErr := c.startTime, c.lastErr
	c.mu.Unlock()
	return Status{
		ServiceID:      c.svc.ID,
		State:          c.machine.CurrentState(),
		Installed:      installed,
		ReadyConfirmed: c.readyConfirmed.Load(),
		StartTime:      st,
		LastError:      lastErr,
		Port:           c.svc.Port,
	}
}

func (c *Controller) checkInstalledCached() (bool, string) {
	c.installCacheMu.Lock()
	if !c.installCacheAt.IsZero() && time.Now().Before(c.installCacheAt.Add(c.cfg.InstallCacheTTL)) {
		ok, reason := c.installCacheOK, c.installCacheReason
		c.installCacheMu.Unlock()
		return ok, reason
	}
	c.installCacheMu.Unlock()

	ok, reason := checkInstalled(c.svc)

	c.installCacheMu.Lock()
	c.installCacheOK, c.installCacheReason, c.installCacheAt = ok, reason, time.Now()
	c.installCacheMu.Unlock()
	return ok, reason
}

func (c *Controller) invalidateInstallCache() {
	c.installCacheMu.Lock()
	c.installCacheAt = time.Time{}
	c.installCacheMu.Unlock()
}

// Install runs the service's install recipe to completion. It is
// rejected with ErrBusy if Start/Stop/Install already holds the action
// slot.
func (c *Controller) Install(ctx context.Context) (installer.Result, error) {
	if !c.tryLock() {
		return installer.Result{}, newError(c.svc.ID, KindBusy, ErrBusy)
	}
	defer c.unlock()
	defer c.invalidateInstallCache()

	if c.svc.InstallCmd == nil {
		return installer.Result{}, nil
	}
	recipe, err := c.svc.InstallCmd(ctx)
	if err != nil {
		return installer.Result{}, newError(c.svc.ID, KindSpawnFailed, fmt.Errorf("%w: %w", ErrSpawnFailed, err))
	}

	result, err := c.installer.Run(ctx, c.svc.ID, recipe, c.sink)
	if err != nil && !errors.Is(err, installer.ErrCancelled) {
		return result, newError(c.svc.ID, KindSpawnFailed, fmt.Errorf("%w: %w", ErrSpawnFailed, err))
	}
	if result.ExitCode != 0 {
		ec := result.ExitCode
		tail := c.sink.RingFor(c.svc.ID).Lines()
		return result, &Error{Kind: KindInstallFailed, ServiceID: c.svc.ID, ExitCode: &ec, OutputTail: tail, Err: ErrInstallFailed}
	}
	return result, nil
}

// Start launches the service's child process and returns once it has
// been spawned and the Starting transition has committed; readiness
// probing and output streaming continue in the background on their
// own goroutines.
func (c *Controller) Start(ctx context.Context) error {
	if c.svc.ManagedByPeer != "" {
		return newError(c.svc.ID, KindManagedByPeer, ErrManagedByPeer)
	}
	c.actionMu.Lock()
	defer c.actionMu.Unlock()

	if c.machine.IsInState(state.StateError) {
		_ = c.machine.Fire(ctx, state.TriggerReset)
	}

	installed, reason := c.checkInstalledCached()
	if !installed {
		return &Error{Kind: KindNotInstalled, ServiceID: c.svc.ID, OutputTail: []string{reason}, Err: ErrNotInstalled}
	}

	if c.ports != nil {
		if err := c.ports.Reclaim(ctx, c.svc.Port, 0); err != nil {
			return newError(c.svc.ID, KindPortOccupied, fmt.Errorf("%w: %w", ErrPortOccupied, err))
		}
	}

	if err := c.machine.Fire(ctx, state.TriggerStart); err != nil {
		return newError(c.svc.ID, KindSpawnFailed, fmt.Errorf("%w: %w", ErrSpawnFailed, err))
	}

	if c.svc.StartCmd == nil {
		_ = c.machine.Fire(context.Background(), state.TriggerExit)
		return newError(c.svc.ID, KindSpawnFailed, fmt.Errorf("%w: no start command declared", ErrSpawnFailed))
	}
	recipe, err := c.svc.StartCmd(ctx)
	if err != nil {
		_ = c.machine.Fire(context.Background(), state.TriggerExit)
		return newError(c.svc.ID, KindSpawnFailed, fmt.Errorf("%w: %w", ErrSpawnFailed, err))
	}

	cmd := exec.Command(recipe.Argv[0], recipe.Argv[1:]...)
	cmd.Dir = recipe.Dir
	cmd.Env = append(os.Environ(), recipe.Env...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if c.group != nil {
		c.group.Prepare(cmd)
	}

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		_ = c.machine.Fire(context.Background(), state.TriggerExit)
		return newError(c.svc.ID, KindSpawnFailed, fmt.Errorf("%w: %w", ErrSpawnFailed, err))
	}

	if c.group != nil {
		if attachErr := c.group.Attach(cmd); attachErr != nil {
			log.GetGlobalLogger().WarnContext(ctx, "service did not join process group", "service", c.svc.ID, "error", attachErr)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{cmd: cmd, cancel: cancel, exited: make(chan struct{})}

	c.sink.RingFor(c.svc.ID).Reset()
	c.readyConfirmed.Store(false)
	c.mu.Lock()
	c.startTime = time.Now()
	c.lastErr = nil
	c.current = r
	c.mu.Unlock()

	go c.streamOutput(pr, c.svc.ID)
	go c.superviseExit(cmd, pw, r)
	go c.probeReadiness(runCtx, r)

	return nil
}

func (c *Controller) streamOutput(pr *io.PipeReader, serviceID string) {
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		level := eventsink.LevelInfo
		if containsErrorKeyword(line, c.cfg.ErrorKeywords) {
			level = eventsink.LevelError
			c.sink.Write(eventsink.LogLine(eventsink.LauncherServiceID, fmt.Sprintf("[%s] %s", serviceID, line), eventsink.LevelError))
		}
		c.sink.Write(eventsink.LogLine(serviceID, line, level))
	}
}

func containsErrorKeyword(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (c *Controller) superviseExit(cmd *exec.Cmd, pw *io.PipeWriter, r *run) {
	waitErr := cmd.Wait()
	pw.Close()

	c.mu.Lock()
	r.waitErr = waitErr
	r.exitCode = exitCodeFrom(waitErr)
	c.mu.Unlock()
	close(r.exited)

	if c.group != nil && cmd.Process != nil {
		c.group.Detach(cmd.Process.Pid)
	}

	cur := c.machine.CurrentState()
	if cur != state.StateStarting && cur != state.StateRunning {
		// Stop() is driving this exit (or already has); it owns the
		// stopped transition and error bookkeeping.
		return
	}

	ec := r.exitCode
	tail := c.sink.RingFor(c.svc.ID).Lines()
	c.setLastErr(&Error{Kind: KindStartupExit, ServiceID: c.svc.ID, ExitCode: &ec, OutputTail: tail, Err: ErrStartupExit})
	_ = c.machine.Fire(context.Background(), state.TriggerExit)
}

func (c *Controller) probeReadiness(ctx context.Context, r *run) {
	target := health.Target{BaseURL: c.svc.BaseURL, HealthPath: c.svc.HealthPath, Host: "localhost", Port: c.svc.Port}
	ready, err := c.health.PollUntilReady(ctx, target)
	if err != nil {
		return
	}
	select {
	case <-r.exited:
		return
	default:
	}
	if ready {
		c.readyConfirmed.Store(true)
		_ = c.machine.Fire(context.Background(), state.TriggerReady)
		return
	}
	_ = c.machine.Fire(context.Background(), state.TriggerStartTimeout)
}

// RefreshReadiness re-probes a running-but-not-yet-confirmed service once.
// It is a no-op unless the machine is currently in StateRunning with
// ReadyConfirmed still false; a successful probe flips ReadyConfirmed true
// without firing any state transition, matching the same boundary a
// would-be Start-time success already crosses. The periodic refresh loop
// calls this on every tick so a service that was merely slow to come up
// still gets marked ready without a restart.
func (c *Controller) RefreshReadiness(ctx context.Context) {
	if c.machine.CurrentState() != state.StateRunning || c.readyConfirmed.Load() {
		return
	}
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()
	if r == nil {
		return
	}

	target := health.Target{BaseURL: c.svc.BaseURL, HealthPath: c.svc.HealthPath, Host: "localhost", Port: c.svc.Port}
	ready, err := c.health.Probe(ctx, target)
	if err != nil || !ready {
		return
	}

	select {
	case <-r.exited:
		return
	default:
	}
	c.readyConfirmed.Store(true)
}

func exitCodeFrom(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Stop cancels the run context and waits up to cfg.StopGrace for the
// child to exit on its own before escalating to a cfg.KillGrace-bounded
// tree-kill, then reclaims the port as a final sweep once the child has
// exited. Stopping an already-Stopped or Error service is a no-op
// success.
func (c *Controller) Stop(ctx context.Context) error {
	if c.svc.ManagedByPeer != "" {
		return newError(c.svc.ID, KindManagedByPeer, ErrManagedByPeer)
	}
	c.actionMu.Lock()
	defer c.actionMu.Unlock()

	switch c.machine.CurrentState() {
	case state.StateStopped:
		return nil
	case state.StateError:
		_ = c.machine.Fire(ctx, state.TriggerReset)
		return nil
	}

	c.mu.Lock()
	r := c.current
	c.mu.Unlock()

	if r == nil {
		_ = c.machine.Fire(ctx, state.TriggerStop)
		_ = c.machine.Fire(ctx, state.TriggerStopped)
		return nil
	}

	if c.machine.CurrentState() != state.StateStopping {
		if err := c.machine.Fire(ctx, state.TriggerStop); err != nil {
			return newError(c.svc.ID, KindStopTimeout, fmt.Errorf("%w: %w", ErrStopTimeout, err))
		}
	}
	r.cancel()

	graceTimer := time.NewTimer(c.cfg.StopGrace)
	select {
	case <-r.exited:
		graceTimer.Stop()
	case <-graceTimer.C:
		if r.cmd.Process != nil {
			_ = c.adapter.KillTree(ctx, r.cmd.Process.Pid, c.cfg.KillGrace)
		}
	}

	timeout := time.NewTimer(time.Duration(c.cfg.KillGrace+2) * time.Second)
	defer timeout.Stop()
	select {
	case <-r.exited:
	case <-timeout.C:
		return newError(c.svc.ID, KindStopTimeout, ErrStopTimeout)
	}

	if c.ports != nil {
		if err := c.ports.Reclaim(ctx, c.svc.Port, 0); err != nil {
			log.GetGlobalLogger().WarnContext(ctx, "port still held after stop", "service", c.svc.ID, "port", c.svc.Port, "error", err)
		}
	}

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	_ = c.machine.Fire(context.Background(), state.TriggerStopped)
	return nil
}
