// SPDX-License-Identifier: BSD-3-Clause

package httpstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/GenorTG/assistant-launcher/pkg/log"
	gservice "github.com/GenorTG/assistant-launcher/service"
	"github.com/GenorTG/assistant-launcher/service/bus"
	"github.com/GenorTG/assistant-launcher/service/supervisor"
)

// Compile-time assertion that Server implements service.Service, so the
// supervisor's own internal oversight tree can supervise it like any
// other long-lived internal service.
var _ gservice.Service = (*Server)(nil)

// Server is the HTTP surface over a Supervisor: a status poll, three
// command endpoints, and an SSE event stream sourced from the bus.
type Server struct {
	cfg *config
	sup *supervisor.Supervisor
	bus *bus.Bus

	logger *slog.Logger
}

// New builds a Server fronting sup, with events streamed from b.
func New(sup *supervisor.Supervisor, b *bus.Bus, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{cfg: cfg, sup: sup, bus: b}
}

// Name implements service.Service.
func (s *Server) Name() string { return s.cfg.serviceName }

// Run starts the HTTP listener and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.logger = log.GetGlobalLogger().With("service", s.cfg.serviceName)

	handler := s.setupRouter()

	srv := &http.Server{
		Addr:         s.cfg.addr,
		Handler:      handler,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
		ReadTimeout:  s.cfg.readTimeout,
		WriteTimeout: s.cfg.writeTimeout,
		IdleTimeout:  s.cfg.idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "http status server listening", "addr", s.cfg.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("%w: %w", ErrListenFailed, err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.WarnContext(ctx, "error shutting down http status server", "error", err)
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatusAll)
	mux.HandleFunc("GET /status/{id}", s.handleStatusOne)
	mux.HandleFunc("POST /install", s.handleInstall)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("GET /events", s.handleEvents)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: s.cfg.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	handler := corsMiddleware.Handler(mux)
	return otelhttp.NewHandler(handler, s.cfg.serviceName)
}

func (s *Server) handleStatusAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sup.StatusAll(r.Context()))
}

func (s *Server) handleStatusOne(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, err := s.sup.Status(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	sel, err := decodeSelection(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var outcome supervisor.Outcome
	if len(sel.Services) == 0 {
		outcome = s.sup.InstallAll(r.Context())
	} else {
		outcome = s.sup.InstallSelected(r.Context(), sel.Services)
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sel, err := decodeSelection(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var outcome supervisor.Outcome
	if len(sel.Services) == 0 {
		outcome = s.sup.StartAll(r.Context())
	} else {
		outcome = s.sup.StartSelected(r.Context(), sel.Services)
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	sel, err := decodeSelection(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var outcome supervisor.Outcome
	if len(sel.Services) == 0 {
		outcome = s.sup.StopAll(r.Context())
	} else {
		outcome = s.stopSelected(r.Context(), sel.Services)
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

// stopSelected stops each requested id individually, one after another,
// through Supervisor.Stop; Supervisor has no StopSelected fan-out, only
// the all-services StopAll.
func (s *Server) stopSelected(ctx context.Context, ids []string) supervisor.Outcome {
	outcome := supervisor.Outcome{Failed: make(map[string]error), Skipped: make(map[string]string)}
	for _, id := range ids {
		if err := s.sup.Stop(ctx, id); err != nil {
			outcome.Failed[id] = err
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, id)
	}
	return outcome
}

// handleEvents streams every bus record as it is published, as
// text/event-stream frames, until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, ErrStreamingUnsupported.Error(), http.StatusInternalServerError)
		return
	}

	nc, err := nats.Connect("", nats.InProcessServer(s.bus))
	if err != nil {
		http.Error(w, fmt.Sprintf("%s: %v", ErrEventSubscribeFailed, err), http.StatusServiceUnavailable)
		return
	}
	defer nc.Close()

	msgs := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(bus.SubjectAll, msgs)
	if err != nil {
		http.Error(w, fmt.Sprintf("%s: %v", ErrEventSubscribeFailed, err), http.StatusServiceUnavailable)
		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case msg := <-msgs:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", strings.TrimPrefix(msg.Subject, "events."), msg.Data)
			flusher.Flush()
		}
	}
}

type selection struct {
	Services []string `json:"services"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type outcomeResponse struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
	Skipped   map[string]string `json:"skipped"`
}

func toOutcomeResponse(o supervisor.Outcome) outcomeResponse {
	failed := make(map[string]string, len(o.Failed))
	for id, err := range o.Failed {
		failed[id] = err.Error()
	}
	return outcomeResponse{Succeeded: o.Succeeded, Failed: failed, Skipped: o.Skipped}
}

func decodeSelection(r *http.Request) (selection, error) {
	if r.ContentLength == 0 {
		return selection{}, nil
	}
	var sel selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		return selection{}, fmt.Errorf("decode request body: %w", err)
	}
	return sel, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
