// SPDX-License-Identifier: BSD-3-Clause

package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/GenorTG/assistant-launcher/pkg/log"
	gservice "github.com/GenorTG/assistant-launcher/service"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
)

// Compile-time assertion that Bus implements service.Service, so the
// supervisor's own internal oversight tree can supervise it like any
// other long-lived internal service.
var _ gservice.Service = (*Bus)(nil)

// Bus embeds a NATS server and republishes every record read off an
// eventsink.Sink onto it. It is itself a service.Service so
// service/supervisor's internal oversight tree runs and restarts it the
// same way it runs every other internal service.
type Bus struct {
	cfg    *config
	sink   eventsink.Sink
	server *server.Server
	logger *slog.Logger
}

// New builds a Bus that will drain sink once Run starts.
func New(sink eventsink.Sink, opts ...Option) *Bus {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Bus{cfg: cfg, sink: sink}
}

// Name implements service.Service.
func (b *Bus) Name() string { return b.cfg.serviceName }

// Run starts the embedded NATS server, then drains b.sink until ctx is
// canceled, publishing each record onto its kind-specific subject as
// JSON. It never returns nil while ctx is live; a drained (closed) sink
// is treated as Run completing normally only once ctx is also done.
func (b *Bus) Run(ctx context.Context) error {
	b.logger = log.GetGlobalLogger().With("service", b.cfg.serviceName)

	opts := &server.Options{
		ServerName: b.cfg.serverName,
		DontListen: true,
		NoLog:      true,
		NoSigs:     true,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerCreationFailed, err)
	}
	b.server = ns
	b.server.SetLoggerV2(log.NewNATSLogger(b.logger), false, false, false)
	b.server.Start()
	defer b.server.Shutdown()

	if !b.server.ReadyForConnections(b.cfg.startupTimeout) {
		return fmt.Errorf("%w: %v", ErrServerTimeout, b.cfg.startupTimeout)
	}

	nc, err := nats.Connect("", nats.InProcessServer(b))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	defer nc.Close()

	b.logger.InfoContext(ctx, "event bus ready", "server_name", b.cfg.serverName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-b.sink.Events():
			if !ok {
				<-ctx.Done()
				return ctx.Err()
			}
			if err := b.publish(nc, rec); err != nil {
				b.logger.WarnContext(ctx, "failed to publish event", "error", err)
			}
		}
	}
}

func (b *Bus) publish(nc *nats.Conn, rec eventsink.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nc.Publish(subjectFor(rec.Kind), payload)
}

// InProcessConn implements nats.InProcessConnProvider so callers (the
// supervisor's httpstatus SSE handler) can obtain additional in-process
// subscribers without an external TCP listener.
func (b *Bus) InProcessConn() (net.Conn, error) {
	if b.server == nil {
		return nil, ErrConnectionNotAvailable
	}
	if !b.server.ReadyForConnections(time.Minute) {
		return nil, ErrServerTimeout
	}
	return b.server.InProcessConn()
}
