// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/pkg/portreg"
	"github.com/GenorTG/assistant-launcher/service/bus"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
	"github.com/GenorTG/assistant-launcher/service/registry"
)

type nopAdapter struct{}

func (nopAdapter) FindRuntime(ctx context.Context, family string, major, minMinor int) (platform.Runtime, error) {
	return platform.Runtime{}, nil
}
func (nopAdapter) KillTree(ctx context.Context, pid int, grace int) error { return nil }
func (nopAdapter) PIDsOnPort(ctx context.Context, port int) ([]int, error) {
	return nil, nil
}
func (nopAdapter) KillOnPort(ctx context.Context, port int, excludePID int) (int, error) {
	return 0, nil
}
func (nopAdapter) NewGroup() (platform.Group, error) { return nopGroup{}, nil }

type nopGroup struct{}

func (nopGroup) Prepare(_ *exec.Cmd)      {}
func (nopGroup) Attach(_ *exec.Cmd) error { return nil }
func (nopGroup) Close() error             { return nil }

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	coreDir := t.TempDir()
	leafDir := t.TempDir()

	core := registry.Service{
		ID: "core", Name: "core", Port: 19001, BaseURL: "http://localhost:19001",
		HealthPath: "/health", WorkDir: coreDir, IsCore: true,
		InstallKind: registry.InstallInterpretedShared, RuntimeDir: coreDir,
		StartCmd: func(ctx context.Context) (registry.Recipe, error) {
			return registry.Recipe{Argv: []string{"sleep", "30"}}, nil
		},
	}
	leaf := registry.Service{
		ID: "leaf", Name: "leaf", Port: 19002, BaseURL: "http://localhost:19002",
		HealthPath: "/health", WorkDir: leafDir,
		InstallKind: registry.InstallCompiledAsset, RuntimeDir: leafDir,
		StartCmd: func(ctx context.Context) (registry.Recipe, error) {
			return registry.Recipe{Argv: []string{"sleep", "30"}}, nil
		},
	}
	managed := registry.Service{
		ID: "managed", Name: "managed", Port: 19003, BaseURL: "http://localhost:19003",
		WorkDir: leafDir, ManagedByPeer: "leaf",
		InstallKind: registry.InstallCompiledAsset, RuntimeDir: leafDir,
	}

	reg, err := registry.NewFromServices([]registry.Service{core, leaf, managed})
	if err != nil {
		t.Fatalf("NewFromServices: %v", err)
	}
	return reg
}

func testSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	reg := testRegistry(t)
	sink := eventsink.NewChannelSink(256)
	t.Cleanup(sink.Close)
	go func() {
		for range sink.Events() {
		}
	}()

	b := bus.New(sink)
	ports := portreg.New(nopAdapter{})
	sup, err := New(reg, sink, b, ports, nopAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sup
}

func TestStartSelectedSkipsManagedByPeer(t *testing.T) {
	sup := testSupervisor(t)

	outcome := sup.StartSelected(context.Background(), []string{"managed"})
	if _, skipped := outcome.Skipped["managed"]; !skipped {
		t.Fatalf("expected managed to be skipped, got %+v", outcome)
	}
	if len(outcome.Failed) != 0 {
		t.Fatalf("expected no failures, got %+v", outcome.Failed)
	}
}

func TestStartSelectedStartsCoreBeforeLeaf(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var order []string
	record := func(id string) func(ctx context.Context) (registry.Recipe, error) {
		return func(ctx context.Context) (registry.Recipe, error) {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return registry.Recipe{Argv: []string{"sleep", "30"}}, nil
		}
	}

	core := registry.Service{
		ID: "core", Name: "core", Port: 19011, BaseURL: "http://localhost:19011",
		WorkDir: dir, IsCore: true, InstallKind: registry.InstallCompiledAsset, RuntimeDir: dir,
		StartCmd: record("core"),
	}
	leaf := registry.Service{
		ID: "leaf", Name: "leaf", Port: 19012, BaseURL: "http://localhost:19012",
		WorkDir: dir, InstallKind: registry.InstallCompiledAsset, RuntimeDir: dir,
		StartCmd: record("leaf"),
	}

	reg, err := registry.NewFromServices([]registry.Service{core, leaf})
	if err != nil {
		t.Fatalf("NewFromServices: %v", err)
	}
	sink := eventsink.NewChannelSink(256)
	t.Cleanup(sink.Close)
	go func() {
		for range sink.Events() {
		}
	}()
	b := bus.New(sink)
	ports := portreg.New(nopAdapter{})
	sup, err := New(reg, sink, b, ports, nopAdapter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome := sup.StartSelected(context.Background(), []string{"leaf", "core"})
	if len(outcome.Failed) != 0 {
		t.Fatalf("expected no failures, got %+v", outcome.Failed)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "core" || order[1] != "leaf" {
		t.Fatalf("expected core to start before leaf regardless of selection order, got %v", order)
	}

	sup.Stop(context.Background(), "core")
	sup.Stop(context.Background(), "leaf")
}

func TestInstallSelectedPartitionsSharedRuntime(t *testing.T) {
	sup := testSupervisor(t)

	// Neither service is actually installed (no install recipe, install
	// cmd is nil for both), so Install is a no-op success for each - this
	// only exercises the sequential/parallel partitioning, not a real
	// install.
	outcome := sup.InstallSelected(context.Background(), []string{"core", "leaf"})
	if len(outcome.Failed) != 0 {
		t.Fatalf("expected no failures, got %+v", outcome.Failed)
	}
	if len(outcome.Succeeded) != 2 {
		t.Fatalf("expected both services to succeed, got %+v", outcome.Succeeded)
	}
}

func TestStatusAllReportsEveryService(t *testing.T) {
	sup := testSupervisor(t)

	statuses := sup.StatusAll(context.Background())
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses["core"].State != "stopped" {
		t.Fatalf("expected core to start stopped, got %q", statuses["core"].State)
	}
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	sup := testSupervisor(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
