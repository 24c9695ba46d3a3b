// SPDX-License-Identifier: BSD-3-Clause

package controller

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
	"github.com/GenorTG/assistant-launcher/service/health"
	"github.com/GenorTG/assistant-launcher/service/installer"
	"github.com/GenorTG/assistant-launcher/service/registry"
)

type fakeProber struct {
	delay    time.Duration
	ready    bool
	err      error
	lastCall health.Target
}

func (f *fakeProber) PollUntilReady(ctx context.Context, t health.Target) (bool, error) {
	f.lastCall = t
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return f.ready, f.err
}

func (f *fakeProber) Probe(ctx context.Context, t health.Target) (bool, error) {
	f.lastCall = t
	return f.ready, f.err
}

type fakeInstaller struct {
	delay  time.Duration
	result installer.Result
	err    error
}

func (f *fakeInstaller) Run(ctx context.Context, serviceID string, recipe registry.Recipe, sink eventsink.Sink) (installer.Result, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

type fakeReclaimer struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeReclaimer) Reclaim(ctx context.Context, port int, excludePID int) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.err
}

func (f *fakeReclaimer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAdapter struct{}

func (fakeAdapter) FindRuntime(ctx context.Context, family string, major, minMinor int) (platform.Runtime, error) {
	return platform.Runtime{}, errors.New("not implemented")
}

func (fakeAdapter) KillTree(ctx context.Context, pid int, grace int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return proc.Kill()
}

func (fakeAdapter) PIDsOnPort(ctx context.Context, port int) ([]int, error) { return nil, nil }

func (fakeAdapter) KillOnPort(ctx context.Context, port int, excludePID int) (int, error) {
	return 0, nil
}

func (fakeAdapter) NewGroup() (platform.Group, error) { return nil, errors.New("not implemented") }

func installedService(t *testing.T, id string, argv []string) registry.Service {
	t.Helper()
	dir := t.TempDir()
	return registry.Service{
		ID: id, Name: id, Port: 18000, BaseURL: "http://localhost:18000", HealthPath: "/health",
		WorkDir: dir, InstallKind: registry.InstallCompiledAsset, RuntimeDir: dir,
		StartCmd: func(ctx context.Context) (registry.Recipe, error) {
			return registry.Recipe{Argv: argv}, nil
		},
	}
}

func waitForState(t *testing.T, c *Controller, want string, timeout time.Duration) Status {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		st := c.Status(context.Background())
		if st.State == want {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %q, last state %q", want, c.Status(context.Background()).State)
	return Status{}
}

func TestStartTransitionsToRunningOnReady(t *testing.T) {
	svc := installedService(t, "svc-ready", []string{"sleep", "5"})
	sink := eventsink.NewChannelSink(256)
	go func() {
		for range sink.Events() {
		}
	}()

	c, err := New(svc, sink, &fakeProber{ready: true}, &fakeInstaller{}, &fakeReclaimer{}, fakeAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	st := waitForState(t, c, "running", 2*time.Second)
	if !st.ReadyConfirmed {
		t.Fatalf("expected ready_confirmed true, got status %+v", st)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	waitForState(t, c, "stopped", 2*time.Second)
}

func TestStartRejectsWhenNotInstalled(t *testing.T) {
	svc := installedService(t, "svc-not-installed", []string{"sleep", "5"})
	svc.RuntimeDir = svc.RuntimeDir + "-missing"

	sink := eventsink.NewChannelSink(256)
	go func() {
		for range sink.Events() {
		}
	}()
	c, err := New(svc, sink, &fakeProber{ready: true}, &fakeInstaller{}, &fakeReclaimer{}, fakeAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = c.Start(context.Background())
	if !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
}

func TestStartRejectsManagedByPeer(t *testing.T) {
	svc := installedService(t, "svc-managed", []string{"sleep", "5"})
	svc.ManagedByPeer = "gateway"
	svc.StartCmd = nil

	sink := eventsink.NewChannelSink(256)
	go func() {
		for range sink.Events() {
		}
	}()
	c, err := New(svc, sink, &fakeProber{ready: true}, &fakeInstaller{}, &fakeReclaimer{}, fakeAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Start(context.Background()); !errors.Is(err, ErrManagedByPeer) {
		t.Fatalf("expected ErrManagedByPeer, got %v", err)
	}
	if err := c.Stop(context.Background()); !errors.Is(err, ErrManagedByPeer) {
		t.Fatalf("expected ErrManagedByPeer, got %v", err)
	}
}

func TestCrashDuringStartupTransitionsToError(t *testing.T) {
	svc := installedService(t, "svc-crash", []string{"sh", "-c", "echo boom; exit 7"})
	sink := eventsink.NewChannelSink(256)
	go func() {
		for range sink.Events() {
		}
	}()

	c, err := New(svc, sink, &fakeProber{ready: true, delay: 300 * time.Millisecond}, &fakeInstaller{}, &fakeReclaimer{}, fakeAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	st := waitForState(t, c, "error", 2*time.Second)
	if st.LastError == nil || st.LastError.Kind != KindStartupExit {
		t.Fatalf("expected StartupExit error, got %+v", st.LastError)
	}
	if st.LastError.ExitCode == nil || *st.LastError.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %+v", st.LastError.ExitCode)
	}
}

func TestRefreshReadinessConfirmsAfterStartTimeout(t *testing.T) {
	svc := installedService(t, "svc-slow-ready", []string{"sleep", "5"})
	sink := eventsink.NewChannelSink(256)
	go func() {
		for range sink.Events() {
		}
	}()

	prober := &fakeProber{ready: false}
	c, err := New(svc, sink, prober, &fakeInstaller{}, &fakeReclaimer{}, fakeAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	st := waitForState(t, c, "running", 2*time.Second)
	if st.ReadyConfirmed {
		t.Fatalf("expected ready_confirmed false after a start-timeout poll, got %+v", st)
	}

	prober.ready = true
	c.RefreshReadiness(context.Background())

	st = c.Status(context.Background())
	if st.State != "running" {
		t.Fatalf("expected state to remain running after a refresh probe, got %q", st.State)
	}
	if !st.ReadyConfirmed {
		t.Fatalf("expected ready_confirmed true after a successful refresh probe, got %+v", st)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	waitForState(t, c, "stopped", 2*time.Second)
}

func TestStopReclaimsPort(t *testing.T) {
	svc := installedService(t, "svc-reclaim", []string{"sleep", "5"})
	sink := eventsink.NewChannelSink(256)
	go func() {
		for range sink.Events() {
		}
	}()

	reclaimer := &fakeReclaimer{}
	c, err := New(svc, sink, &fakeProber{ready: true}, &fakeInstaller{}, reclaimer, fakeAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForState(t, c, "running", 2*time.Second)

	beforeStop := reclaimer.callCount()

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	waitForState(t, c, "stopped", 2*time.Second)

	if reclaimer.callCount() <= beforeStop {
		t.Fatalf("expected Stop to reclaim the port, call count stayed at %d", beforeStop)
	}
}

func TestInstallRejectsConcurrentWithBusy(t *testing.T) {
	svc := installedService(t, "svc-install", []string{"sleep", "5"})
	sink := eventsink.NewChannelSink(256)
	go func() {
		for range sink.Events() {
		}
	}()

	slow := &fakeInstaller{delay: 200 * time.Millisecond}
	c, err := New(svc, sink, &fakeProber{ready: true}, slow, &fakeReclaimer{}, fakeAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = c.Install(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		_, errs[1] = c.Install(context.Background())
	}()
	wg.Wait()

	var sawBusy bool
	for _, e := range errs {
		if errors.Is(e, ErrBusy) {
			sawBusy = true
		}
	}
	if !sawBusy {
		t.Fatalf("expected one of the concurrent installs to be rejected busy, got %v", errs)
	}
}
