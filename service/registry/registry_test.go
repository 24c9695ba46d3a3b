// SPDX-License-Identifier: BSD-3-Clause

package registry

import (
	"context"
	"errors"
	"testing"
)

func TestNewFromServicesRejectsDuplicatePort(t *testing.T) {
	_, err := NewFromServices([]Service{
		{ID: "a", Port: 8000},
		{ID: "b", Port: 8000},
	})
	if !errors.Is(err, ErrDuplicatePort) {
		t.Fatalf("expected ErrDuplicatePort, got %v", err)
	}
}

func TestNewFromServicesRejectsDuplicateID(t *testing.T) {
	_, err := NewFromServices([]Service{
		{ID: "a", Port: 8000},
		{ID: "a", Port: 8001},
	})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestNewFromServicesRejectsUnknownManager(t *testing.T) {
	_, err := NewFromServices([]Service{
		{ID: "a", Port: 8000, ManagedByPeer: "ghost"},
	})
	if !errors.Is(err, ErrUnknownManager) {
		t.Fatalf("expected ErrUnknownManager, got %v", err)
	}
}

func TestNewFromServicesRejectsManagedWithStartCmd(t *testing.T) {
	_, err := NewFromServices([]Service{
		{ID: "gateway", Port: 8000},
		{ID: "llm", Port: 8001, ManagedByPeer: "gateway", StartCmd: func(ctx context.Context) (Recipe, error) {
			return Recipe{}, nil
		}},
	})
	if !errors.Is(err, ErrManagedHasStartCmd) {
		t.Fatalf("expected ErrManagedHasStartCmd, got %v", err)
	}
}

func TestDefaultCatalogValidates(t *testing.T) {
	r, err := New(DefaultCatalog("/opt/assistant"))
	if err != nil {
		t.Fatalf("default catalog should validate: %v", err)
	}
	llm, err := r.Get("llm")
	if err != nil {
		t.Fatalf("expected llm in catalog: %v", err)
	}
	if llm.ManagedByPeer != "gateway" {
		t.Fatalf("expected llm managed by gateway, got %q", llm.ManagedByPeer)
	}
	if llm.StartCmd != nil {
		t.Fatalf("managed-by-peer service must have no start command")
	}
	fe, err := r.Get("frontend")
	if err != nil {
		t.Fatalf("expected frontend in catalog: %v", err)
	}
	if fe.HealthPath != "" {
		t.Fatalf("frontend should have no health path")
	}
	if len(r.Ports()) != 9 {
		t.Fatalf("expected 9 distinct ports, got %d", len(r.Ports()))
	}
}
