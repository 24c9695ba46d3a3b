// SPDX-License-Identifier: BSD-3-Clause

// Package supervisor's Supervisor type is the top-level object wired up by
// cmd/launcherd: one Controller per registry.Service, a shared event sink
// and bus, and the command surface service/httpstatus calls into.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"

	"github.com/GenorTG/assistant-launcher/pkg/log"
	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/pkg/portreg"
	"github.com/GenorTG/assistant-launcher/pkg/process"
	"github.com/GenorTG/assistant-launcher/pkg/procgroup"
	"github.com/GenorTG/assistant-launcher/service/bus"
	"github.com/GenorTG/assistant-launcher/service/controller"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
	"github.com/GenorTG/assistant-launcher/service/health"
	"github.com/GenorTG/assistant-launcher/service/installer"
	"github.com/GenorTG/assistant-launcher/service/registry"
)

// Supervisor owns one Controller per service in reg, the shared event
// sink and bus, and the orphan-port/watchdog startup machinery.
type Supervisor struct {
	cfg *Config

	reg     *registry.Registry
	sink    eventsink.Sink
	bus     *bus.Bus
	ports   *portreg.Registry
	adapter platform.Adapter
	group   *procgroup.Manager

	controllers map[string]*controller.Controller

	heavyOp       atomic.Bool
	watchdogCmd   *exec.Cmd
	watchdogCmdMu sync.Mutex
}

// New builds a Supervisor with one Controller per reg.All(), each backed
// by a shared health.Prober and installer.Runner instance. adapter and
// group are shared across every controller, so every spawned child
// joins the same process group.
func New(reg *registry.Registry, sink eventsink.Sink, busSvc *bus.Bus, ports *portreg.Registry, adapter platform.Adapter, group *procgroup.Manager, opts ...Option) (*Supervisor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Supervisor{
		cfg:         cfg,
		reg:         reg,
		sink:        sink,
		bus:         busSvc,
		ports:       ports,
		adapter:     adapter,
		group:       group,
		controllers: make(map[string]*controller.Controller, len(reg.All())),
	}

	prober := health.New()
	runner := installer.New(adapter, group)

	for _, svc := range reg.All() {
		c, err := controller.New(svc, sink, prober, runner, ports, adapter, group, controller.WithStopGrace(cfg.ShutdownGrace))
		if err != nil {
			return nil, fmt.Errorf("build controller for %s: %w", svc.ID, err)
		}
		s.controllers[svc.ID] = c
	}

	return s, nil
}

func (s *Supervisor) controllerFor(id string) (*controller.Controller, error) {
	c, ok := s.controllers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, id)
	}
	return c, nil
}

// Status returns one service's current snapshot.
func (s *Supervisor) Status(ctx context.Context, id string) (controller.Status, error) {
	c, err := s.controllerFor(id)
	if err != nil {
		return controller.Status{}, err
	}
	return c.Status(ctx), nil
}

// StatusAll returns every service's current snapshot, keyed by id.
func (s *Supervisor) StatusAll(ctx context.Context) map[string]controller.Status {
	out := make(map[string]controller.Status, len(s.controllers))
	for id, c := range s.controllers {
		out[id] = c.Status(ctx)
	}
	return out
}

// RefreshReadiness re-probes every controller whose service is Running
// but not yet ready_confirmed, so a service that was merely slow to come
// up on its own startup poll still gets marked ready on a later tick
// rather than staying ready_confirmed=false until it is restarted.
func (s *Supervisor) RefreshReadiness(ctx context.Context) {
	for _, c := range s.controllers {
		c.RefreshReadiness(ctx)
	}
}

// Install runs one service's install recipe.
func (s *Supervisor) Install(ctx context.Context, id string) (installer.Result, error) {
	c, err := s.controllerFor(id)
	if err != nil {
		return installer.Result{}, err
	}
	return c.Install(ctx)
}

// Start starts one service.
func (s *Supervisor) Start(ctx context.Context, id string) error {
	c, err := s.controllerFor(id)
	if err != nil {
		return err
	}
	return c.Start(ctx)
}

// Stop stops one service.
func (s *Supervisor) Stop(ctx context.Context, id string) error {
	c, err := s.controllerFor(id)
	if err != nil {
		return err
	}
	return c.Stop(ctx)
}

// InstallSelected installs every id in ids. Services whose InstallKind is
// InstallInterpretedShared run one after another, in registry declaration
// order, since they share a single runtime directory and a concurrent pip
// install into it would race; every other selected service installs
// concurrently with that sequential phase.
func (s *Supervisor) InstallSelected(ctx context.Context, ids []string) Outcome {
	s.heavyOp.Store(true)
	defer s.heavyOp.Store(false)

	b := newOutcomeBuilder()

	var sequential []string
	var parallelIDs []string
	for _, id := range ids {
		svc, err := s.reg.Get(id)
		if err != nil {
			b.skip(id, "unknown service id")
			continue
		}
		if svc.InstallKind == registry.InstallInterpretedShared {
			sequential = append(sequential, id)
		} else {
			parallelIDs = append(parallelIDs, id)
		}
	}

	var tasks []nursery.ConcurrentJob
	if len(sequential) > 0 {
		tasks = append(tasks, func(ctx context.Context, errChan chan error) {
			for _, id := range sequential {
				s.installOne(ctx, id, b)
			}
		})
	}
	for _, id := range parallelIDs {
		id := id
		tasks = append(tasks, func(ctx context.Context, errChan chan error) {
			s.installOne(ctx, id, b)
		})
	}

	_ = nursery.RunConcurrentlyWithContext(ctx, tasks...)
	return b.build()
}

func (s *Supervisor) installOne(ctx context.Context, id string, b *outcomeBuilder) {
	if _, err := s.Install(ctx, id); err != nil {
		b.fail(id, err)
		return
	}
	b.ok(id)
}

// InstallAll installs every registered service.
func (s *Supervisor) InstallAll(ctx context.Context) Outcome {
	return s.InstallSelected(ctx, s.reg.IDs())
}

// StartSelected starts every id in ids in two phases: every selected
// is_core service starts concurrently first, then every selected leaf
// service starts concurrently, so a leaf service that depends on a
// shared-runtime core service never races its startup. A service with a
// ManagedByPeer set is skipped (its peer starts it), matching
// controller.ErrManagedByPeer rather than surfacing it as a failure.
func (s *Supervisor) StartSelected(ctx context.Context, ids []string) Outcome {
	b := newOutcomeBuilder()

	coreIDs := make(map[string]bool, len(s.reg.Core()))
	for _, svc := range s.reg.Core() {
		coreIDs[svc.ID] = true
	}

	var core, leaf []string
	for _, id := range ids {
		svc, err := s.reg.Get(id)
		if err != nil {
			b.skip(id, "unknown service id")
			continue
		}
		if svc.ManagedByPeer != "" {
			b.skip(id, "managed by "+svc.ManagedByPeer)
			continue
		}
		if coreIDs[id] {
			core = append(core, id)
		} else {
			leaf = append(leaf, id)
		}
	}

	s.startBatch(ctx, core, b)
	s.startBatch(ctx, leaf, b)
	return b.build()
}

// startBatch starts every id concurrently and blocks until all of them
// have either succeeded or failed.
func (s *Supervisor) startBatch(ctx context.Context, ids []string, b *outcomeBuilder) {
	if len(ids) == 0 {
		return
	}
	var tasks []nursery.ConcurrentJob
	for _, id := range ids {
		id := id
		tasks = append(tasks, func(ctx context.Context, errChan chan error) {
			if err := s.Start(ctx, id); err != nil {
				b.fail(id, err)
				return
			}
			b.ok(id)
		})
	}
	_ = nursery.RunConcurrentlyWithContext(ctx, tasks...)
}

// StartAll starts every registered service.
func (s *Supervisor) StartAll(ctx context.Context) Outcome {
	return s.StartSelected(ctx, s.reg.IDs())
}

// StopAll stops every directly-controllable service concurrently, each
// bounded by cfg.ShutdownGrace before the controller escalates to a
// tree-kill, then reclaims every registered port as a final sweep.
func (s *Supervisor) StopAll(ctx context.Context) Outcome {
	b := newOutcomeBuilder()
	var tasks []nursery.ConcurrentJob
	for _, svc := range s.reg.All() {
		if svc.ManagedByPeer != "" {
			b.skip(svc.ID, "managed by "+svc.ManagedByPeer)
			continue
		}
		id := svc.ID
		tasks = append(tasks, func(ctx context.Context, errChan chan error) {
			if err := s.Stop(ctx, id); err != nil {
				b.fail(id, err)
				return
			}
			b.ok(id)
		})
	}
	_ = nursery.RunConcurrentlyWithContext(ctx, tasks...)

	if s.ports != nil {
		for port, err := range s.ports.ReclaimAll(ctx, s.reg.Ports(), 0) {
			log.GetGlobalLogger().WarnContext(ctx, "port still held after shutdown sweep", "port", port, "error", err)
		}
	}
	return b.build()
}

// Run performs the startup sequence (orphan port
// cleanup, watchdog handoff, internal oversight tree for the event bus and
// status-refresh loop) and blocks until ctx is canceled, at which point it
// performs the shutdown sequence before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	l := log.GetGlobalLogger().With("supervisor", s.cfg.Name)

	l.InfoContext(ctx, "reclaiming orphaned ports before startup")
	if s.ports != nil {
		for port, err := range s.ports.ReclaimAll(ctx, s.reg.Ports(), 0) {
			l.WarnContext(ctx, "could not reclaim port at startup", "port", port, "error", err)
		}
	}

	s.spawnWatchdog(ctx)

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(log.NewOversightLogger(l)),
	)

	if s.bus != nil {
		if err := tree.Add(process.New(s.bus), oversight.Transient(), oversight.Timeout(s.cfg.TaskTimeout), s.bus.Name()); err != nil {
			return fmt.Errorf("%w %s: %w", ErrAddTask, s.bus.Name(), err)
		}
	}

	refresh := newRefreshLoop(s)
	if err := tree.Add(process.New(refresh), oversight.Transient(), oversight.Timeout(s.cfg.TaskTimeout), refresh.Name()); err != nil {
		return fmt.Errorf("%w %s: %w", ErrAddTask, refresh.Name(), err)
	}

	l.InfoContext(ctx, "supervisor ready")
	err := tree.Start(ctx)

	l.InfoContext(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	outcome := s.StopAll(shutdownCtx)
	for id, failErr := range outcome.Failed {
		l.WarnContext(ctx, "service did not stop cleanly", "service", id, "error", failErr)
	}

	if s.group != nil {
		if closeErr := s.group.Close(); closeErr != nil {
			l.WarnContext(ctx, "failed to close process group", "error", closeErr)
		}
	}

	return err
}

// spawnWatchdog launches the configured watchdog binary, passing this
// process's own pid and every registered port so the watchdog can kill
// orphaned listeners if the supervisor itself dies without a clean
// shutdown. A missing or unconfigured binary is logged, not fatal: the
// supervisor still runs without one.
//
// The watchdog is deliberately never attached to s.group: on Windows
// that group is backed by a job object with JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
// so joining it would mean the watchdog gets killed by the OS the moment
// the supervisor's own handle closes - exactly the death it exists to
// detect. On Unix, Prepare starts it as the leader of its own process
// group, so signals sent to the supervisor's group do not reach it; the
// platform.Detach() call it makes at startup (setsid) fails for a group
// leader, so it stays in the supervisor's session.
func (s *Supervisor) spawnWatchdog(ctx context.Context) {
	if s.cfg.WatchdogBinary == "" {
		return
	}
	l := log.GetGlobalLogger()

	args := make([]string, 0, len(s.reg.Ports())+1)
	args = append(args, strconv.Itoa(os.Getpid()))
	for _, port := range s.reg.Ports() {
		args = append(args, strconv.Itoa(port))
	}

	cmd := exec.Command(s.cfg.WatchdogBinary, args...)
	if s.group != nil {
		s.group.Prepare(cmd)
	}
	if err := cmd.Start(); err != nil {
		l.WarnContext(ctx, "failed to spawn watchdog", "binary", s.cfg.WatchdogBinary, "error", err)
		return
	}

	s.watchdogCmdMu.Lock()
	s.watchdogCmd = cmd
	s.watchdogCmdMu.Unlock()

	go func() {
		_ = cmd.Wait()
	}()
}
