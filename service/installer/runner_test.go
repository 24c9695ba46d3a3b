// SPDX-License-Identifier: BSD-3-Clause

package installer

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
	"github.com/GenorTG/assistant-launcher/service/registry"
)

// stubAdapter implements just enough of platform.Adapter for these tests;
// only KillTree is ever exercised by the Runner.
type stubAdapter struct{}

func (stubAdapter) FindRuntime(ctx context.Context, family string, major, minMinor int) (platform.Runtime, error) {
	return platform.Runtime{}, errors.New("not implemented")
}

func (stubAdapter) KillTree(ctx context.Context, pid int, grace int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return proc.Kill()
}

func (stubAdapter) PIDsOnPort(ctx context.Context, port int) ([]int, error) { return nil, nil }

func (stubAdapter) KillOnPort(ctx context.Context, port int, excludePID int) (int, error) {
	return 0, nil
}

func (stubAdapter) NewGroup() (platform.Group, error) { return nil, errors.New("not implemented") }

func drain(sink *eventsink.ChannelSink, timeout time.Duration) []eventsink.Record {
	var out []eventsink.Record
	deadline := time.After(timeout)
	for {
		select {
		case rec, ok := <-sink.Events():
			if !ok {
				return out
			}
			out = append(out, rec)
			if rec.Kind == eventsink.KindInstallProgress && rec.ExitCode != nil {
				return out
			}
		case <-deadline:
			return out
		}
	}
}

func TestRunStreamsLinesAndReportsExitCode(t *testing.T) {
	r := New(stubAdapter{}, nil)
	sink := eventsink.NewChannelSink(64)

	recipe := registry.Recipe{Argv: []string{"sh", "-c", "echo hello; echo world 1>&2; exit 3"}}
	result, err := r.Run(context.Background(), "svc-a", recipe, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}

	recs := drain(sink, time.Second)
	var gotHello, gotWorld, gotDone bool
	for _, rec := range recs {
		switch rec.Text {
		case "hello":
			gotHello = true
		case "world":
			gotWorld = true
		}
		if rec.ExitCode != nil && *rec.ExitCode == 3 {
			gotDone = true
		}
	}
	if !gotHello || !gotWorld || !gotDone {
		t.Fatalf("missing expected records: hello=%v world=%v done=%v (%+v)", gotHello, gotWorld, gotDone, recs)
	}
}

func TestRunFiltersNoiseAndStripsANSI(t *testing.T) {
	r := New(stubAdapter{}, nil)
	sink := eventsink.NewChannelSink(64)

	script := "printf '\\033[31mred text\\033[0m\\n'; echo 'package/module.py:1: DeprecationWarning: old'; echo keep-me"
	recipe := registry.Recipe{Argv: []string{"sh", "-c", script}}
	_, err := r.Run(context.Background(), "svc-b", recipe, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recs := drain(sink, time.Second)
	for _, rec := range recs {
		if rec.Kind != eventsink.KindInstallProgress || rec.ExitCode != nil {
			continue
		}
		if rec.Text == "" {
			t.Fatalf("empty line should never reach the sink")
		}
		if rec.Text == "DeprecationWarning: old" || rec.Text == "package/module.py:1: DeprecationWarning: old" {
			t.Fatalf("noise line was not filtered: %q", rec.Text)
		}
	}

	var sawKeep bool
	for _, rec := range recs {
		if rec.Text == "red text" || rec.Text == "keep-me" {
			sawKeep = true
		}
	}
	if !sawKeep {
		t.Fatalf("expected at least the ANSI-stripped/clean lines to survive, got %+v", recs)
	}
}

func TestRunCancelledTreeKillsChild(t *testing.T) {
	r := New(stubAdapter{}, nil, WithKillGrace(1))
	sink := eventsink.NewChannelSink(64)

	ctx, cancel := context.WithCancel(context.Background())
	recipe := registry.Recipe{Argv: []string{"sleep", "30"}}

	done := make(chan struct{})
	var result Result
	var runErr error
	go func() {
		result, runErr = r.Run(ctx, "svc-c", recipe, sink)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if !errors.Is(runErr, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", runErr)
	}
	if result.Duration > 4*time.Second {
		t.Fatalf("cancellation took too long: %v", result.Duration)
	}
}
