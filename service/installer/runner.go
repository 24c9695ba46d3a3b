// SPDX-License-Identifier: BSD-3-Clause

package installer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"time"

	"github.com/GenorTG/assistant-launcher/pkg/log"
	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/pkg/procgroup"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
	"github.com/GenorTG/assistant-launcher/service/registry"
)

// Result is the Installer Runner's outcome: the install command's exit
// code and how long it ran.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Runner spawns install recipes and streams their output to a sink.
type Runner struct {
	cfg     *Config
	adapter platform.Adapter
	group   *procgroup.Manager
}

// New builds a Runner. group may be nil for tests that do not exercise
// process-group membership; production callers always pass the
// supervisor's shared procgroup.Manager.
func New(adapter platform.Adapter, group *procgroup.Manager, opts ...Option) *Runner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Runner{cfg: cfg, adapter: adapter, group: group}
}

// Run spawns recipe as a child of the supervisor's process group,
// streams its merged stdout+stderr to sink line-by-line (escape
// sequences stripped, deprecation noise filtered), and waits for it to
// exit or ctx to be cancelled. Cancellation tree-kills the child and Run
// returns ErrCancelled alongside whatever partial Result it has. Run
// never returns an error for the child's own failure; a non-zero exit is
// reported in Result.ExitCode with a nil error.
func (r *Runner) Run(ctx context.Context, serviceID string, recipe registry.Recipe, sink eventsink.Sink) (Result, error) {
	logger := log.GetGlobalLogger().With("service", serviceID, "op", "install")
	start := time.Now()

	cmd := exec.Command(recipe.Argv[0], recipe.Argv[1:]...)
	cmd.Dir = recipe.Dir
	cmd.Env = append(os.Environ(), recipe.Env...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if r.group != nil {
		r.group.Prepare(cmd)
	}

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return Result{}, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	if r.group != nil {
		if err := r.group.Attach(cmd); err != nil {
			logger.WarnContext(ctx, "install child did not join process group", "error", err)
		}
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	noise := compileNoise(r.cfg.NoisePatterns)

	var (
		cancelled  bool
		waitResult error
		waitDone   bool
	)
	ctxDone := ctx.Done()
	waitCh := waitErr

	for !waitDone || lines != nil {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			forward(sink, serviceID, line, noise)
		case err, ok := <-waitCh:
			if !ok {
				continue
			}
			waitResult = err
			waitDone = true
			waitCh = nil
		case <-ctxDone:
			ctxDone = nil
			if !cancelled {
				cancelled = true
				if cmd.Process != nil {
					_ = r.adapter.KillTree(context.Background(), cmd.Process.Pid, r.cfg.KillGrace)
				}
			}
		}
	}

	if r.group != nil && cmd.Process != nil {
		r.group.Detach(cmd.Process.Pid)
	}

	duration := time.Since(start)
	exitCode := exitCodeFrom(waitResult)
	sink.Write(eventsink.InstallProgressDone(serviceID, exitCode))

	result := Result{ExitCode: exitCode, Duration: duration}
	if cancelled {
		return result, ErrCancelled
	}
	return result, nil
}

func forward(sink eventsink.Sink, serviceID, rawLine string, noise []*regexp.Regexp) {
	clean := stripANSI(rawLine)
	if clean == "" {
		return
	}
	if matchesAny(noise, clean) {
		return
	}
	sink.Write(eventsink.InstallProgressLine(serviceID, clean))
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
