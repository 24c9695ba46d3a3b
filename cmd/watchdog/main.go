// SPDX-License-Identifier: BSD-3-Clause

// Command watchdog is spawned by launcherd as:
//
//	watchdog <supervisor_pid> <port1> <port2> ...
//
// It reads no input and writes no output beyond its own log lines. It
// exits 0 once it has reclaimed every listed port after detecting the
// supervisor's death, and non-zero if its argument list is malformed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/service/watchdog"
)

func main() {
	superPID, ports, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "watchdog:", err)
		os.Exit(1)
	}

	if err := platform.Detach(); err != nil {
		slog.Warn("failed to detach from controlling terminal", "error", err)
	}

	slog.Info("watchdog started", "supervisor_pid", superPID, "ports", ports)

	w := watchdog.New(platform.New(), superPID, ports)
	if err := w.Run(context.Background()); err != nil {
		slog.Error("watchdog exited with error", "error", err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (superPID int, ports []int, err error) {
	if len(args) < 1 {
		return 0, nil, fmt.Errorf("usage: watchdog <supervisor_pid> [port...]")
	}
	superPID, err = strconv.Atoi(args[0])
	if err != nil {
		return 0, nil, fmt.Errorf("invalid supervisor pid %q: %w", args[0], err)
	}
	ports = make([]int, 0, len(args)-1)
	for _, a := range args[1:] {
		port, err := strconv.Atoi(a)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid port %q: %w", a, err)
		}
		ports = append(ports, port)
	}
	return superPID, ports, nil
}
