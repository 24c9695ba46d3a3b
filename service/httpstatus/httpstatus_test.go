// SPDX-License-Identifier: BSD-3-Clause

package httpstatus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"

	"github.com/GenorTG/assistant-launcher/pkg/platform"
	"github.com/GenorTG/assistant-launcher/pkg/portreg"
	"github.com/GenorTG/assistant-launcher/service/bus"
	"github.com/GenorTG/assistant-launcher/service/eventsink"
	"github.com/GenorTG/assistant-launcher/service/registry"
	"github.com/GenorTG/assistant-launcher/service/supervisor"
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

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	svc := registry.Service{
		ID: "memory", Name: "memory", Port: 19101, BaseURL: "http://localhost:19101",
		HealthPath: "/health", WorkDir: dir, IsCore: true,
		InstallKind: registry.InstallCompiledAsset, RuntimeDir: dir,
	}
	reg, err := registry.NewFromServices([]registry.Service{svc})
	if err != nil {
		t.Fatalf("NewFromServices: %v", err)
	}

	sink := eventsink.NewChannelSink(64)
	t.Cleanup(sink.Close)
	go func() {
		for range sink.Events() {
		}
	}()

	b := bus.New(sink)
	ports := portreg.New(nopAdapter{})
	sup, err := supervisor.New(reg, sink, b, ports, nopAdapter{}, nil)
	if err != nil {
		t.Fatalf("supervisor.New: %v", err)
	}

	return New(sup, b)
}

func TestHandleStatusAllReturnsEveryService(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	s.setupRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var statuses map[string]map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := statuses["memory"]; !ok {
		t.Fatalf("expected memory status in response, got %+v", statuses)
	}
}

func TestHandleStatusOneUnknownServiceIs404(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status/nonexistent", nil)
	w := httptest.NewRecorder()
	s.setupRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleInstallAppliesToAllWhenSelectionEmpty(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/install", nil)
	w := httptest.NewRecorder()
	s.setupRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var out outcomeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Succeeded) != 1 || out.Succeeded[0] != "memory" {
		t.Fatalf("expected memory to succeed, got %+v", out)
	}
}
