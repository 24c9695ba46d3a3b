// SPDX-License-Identifier: BSD-3-Clause

// Command launcherd is the supervisor process: it loads the default
// personal-assistant service catalog, wires up the platform adapter,
// process group, port registry, event bus and event sink, then runs
// until its context is canceled (SIGINT/SIGTERM), performing an orderly
// shutdown of every service it started.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/arunsworld/nursery"

	"github.com/GenorTG/assistant-launcher/pkg/log"
	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/pkg/portreg"
	"github.com/GenorTG/assistant-launcher/pkg/procgroup"
	"github.com/GenorTG/assistant-launcher/pkg/telemetry"
	"github.com/GenorTG/assistant-launcher/service/bus"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
	"github.com/GenorTG/assistant-launcher/service/httpstatus"
	"github.com/GenorTG/assistant-launcher/service/registry"
	"github.com/GenorTG/assistant-launcher/service/supervisor"
)

func main() {
	sink := eventsink.NewChannelSink(1024)
	defer sink.Close()
	log.SetSinkHandler(eventsink.SlogHandler(sink))
	log.RedirectSlogger()
	telemetry.DefaultSetup()

	if err := run(sink); err != nil {
		log.GetGlobalLogger().Error("launcherd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(sink *eventsink.ChannelSink) error {
	rootDir := os.Getenv("LAUNCHER_ROOT")
	if rootDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve root dir: %w", err)
		}
		rootDir = filepath.Join(home, ".assistant-launcher")
	}

	reg, err := registry.New(registry.DefaultCatalog(rootDir))
	if err != nil {
		return fmt.Errorf("build service registry: %w", err)
	}

	eventBus := bus.New(sink)

	adapter := platform.New()
	ports := portreg.New(adapter)
	group, err := procgroup.New(adapter)
	if err != nil {
		return fmt.Errorf("allocate process group: %w", err)
	}

	sup, err := supervisor.New(reg, sink, eventBus, ports, adapter, group,
		supervisor.WithWatchdogBinary(os.Getenv("LAUNCHER_WATCHDOG_BINARY")),
		supervisor.WithIDFile(filepath.Join(rootDir, "launcher.id")),
	)
	if err != nil {
		return fmt.Errorf("build supervisor: %w", err)
	}

	status := httpstatus.New(sup, eventBus, httpstatus.WithAddr(addrOrDefault(os.Getenv("LAUNCHER_HTTP_ADDR"))))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return nursery.RunConcurrentlyWithContext(ctx,
		func(ctx context.Context, errCh chan error) {
			if err := sup.Run(ctx); err != nil {
				errCh <- fmt.Errorf("supervisor: %w", err)
			}
		},
		func(ctx context.Context, errCh chan error) {
			if err := status.Run(ctx); err != nil {
				errCh <- fmt.Errorf("http status server: %w", err)
			}
		},
	)
}

func addrOrDefault(addr string) string {
	if addr == "" {
		return ":8787"
	}
	return addr
}
