// SPDX-License-Identifier: BSD-3-Clause

package registry

import (
	"context"
	"fmt"
	"sort"
)

// InstallKind selects which branch of the install-status check a
// service uses.
type InstallKind int

const (
	// InstallInterpretedShared is a "script/interpreted" service whose
	// runtime directory is shared with other core services: its check
	// additionally verifies a representative package resolves inside that
	// shared runtime.
	InstallInterpretedShared InstallKind = iota
	// InstallInterpretedOwn is a "script/interpreted" service with its own,
	// unshared runtime directory.
	InstallInterpretedOwn
	// InstallCompiledAsset is a service whose install check is presence of
	// a built-artifact directory rather than a runtime.
	InstallCompiledAsset
)

// Recipe is an argv, a working directory, and environment-variable
// additions to layer on top of the supervisor's own environment.
type Recipe struct {
	Argv []string
	Dir  string
	Env  []string // "KEY=VALUE" additions, layered over os.Environ()
}

// RecipeFunc builds a Recipe on demand, so a recipe can depend on
// discovered state - e.g. a device-selection flag once GPU capability has
// been probed.
type RecipeFunc func(ctx context.Context) (Recipe, error)

// Service is the static description of one supervised process. It never
// changes after the registry is built.
type Service struct {
	ID      string
	Name    string
	Port    int
	BaseURL string
	// HealthPath is appended to BaseURL for an HTTP readiness probe. Empty
	// means readiness is "TCP connect succeeds".
	HealthPath string
	WorkDir    string
	IsCore     bool

	// ManagedByPeer, if non-empty, names the service id that starts and
	// stops this one; a direct start/stop request for this id is refused
	// with controller.ErrManagedByPeer.
	ManagedByPeer string

	InstallKind InstallKind
	// RuntimeDir is the interpreter/venv directory (InstallInterpretedShared
	// and InstallInterpretedOwn) or the built-artifact directory
	// (InstallCompiledAsset) the install-status check inspects.
	RuntimeDir string
	// RuntimeFamily/RuntimeMajor/RuntimeMinMinor select the interpreter
	// platform.Adapter.FindRuntime looks for when RuntimeDir itself does
	// not already pin an absolute interpreter path.
	RuntimeFamily   string
	RuntimeMajor    int
	RuntimeMinMinor int
	// RepresentativePackage is resolved inside RuntimeDir to confirm a
	// shared runtime actually has this service's dependencies installed,
	// not just some other core service's.
	RepresentativePackage string

	InstallCmd RecipeFunc
	StartCmd   RecipeFunc
}

// Registry is the read-only, validated catalog built by New/NewFromServices.
type Registry struct {
	services map[string]Service
	order    []string // declaration order, returned by All and IDs
}

// NewFromServices validates svcs and builds a Registry. Validation enforces
// invariants: ports are unique, ids are unique, each
// ManagedByPeer reference resolves to a real service with no more than one
// manager, and a managed-by-peer service declares no StartCmd.
func NewFromServices(svcs []Service) (*Registry, error) {
	r := &Registry{services: make(map[string]Service, len(svcs))}
	ports := make(map[int]string, len(svcs))
	managerOf := make(map[string]string, len(svcs))

	for _, s := range svcs {
		if _, exists := r.services[s.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
		}
		if owner, exists := ports[s.Port]; exists {
			return nil, fmt.Errorf("%w: port %d claimed by %s and %s", ErrDuplicatePort, s.Port, owner, s.ID)
		}
		ports[s.Port] = s.ID
		r.services[s.ID] = s
		r.order = append(r.order, s.ID)
	}

	for _, s := range svcs {
		if s.ManagedByPeer == "" {
			continue
		}
		if _, ok := r.services[s.ManagedByPeer]; !ok {
			return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownManager, s.ID, s.ManagedByPeer)
		}
		if s.StartCmd != nil {
			return nil, fmt.Errorf("%w: %s", ErrManagedHasStartCmd, s.ID)
		}
		if existing, claimed := managerOf[s.ID]; claimed && existing != s.ManagedByPeer {
			return nil, fmt.Errorf("%w: %s managed by both %s and %s", ErrMultipleManagers, s.ID, existing, s.ManagedByPeer)
		}
		managerOf[s.ID] = s.ManagedByPeer
	}

	return r, nil
}

// Get returns the service registered under id.
func (r *Registry) Get(id string) (Service, error) {
	s, ok := r.services[id]
	if !ok {
		return Service{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// All returns every service in declaration order.
func (r *Registry) All() []Service {
	out := make([]Service, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.services[id])
	}
	return out
}

// IDs returns every service id in declaration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Ports returns every declared port, sorted, for orphan cleanup and port
// reclamation fan-out.
func (r *Registry) Ports() []int {
	out := make([]int, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.services[id].Port)
	}
	sort.Ints(out)
	return out
}

// Core returns every is_core service, in declaration order.
func (r *Registry) Core() []Service {
	var out []Service
	for _, id := range r.order {
		if s := r.services[id]; s.IsCore {
			out = append(out, s)
		}
	}
	return out
}

// Leaf returns every non-core service, in declaration order.
func (r *Registry) Leaf() []Service {
	var out []Service
	for _, id := range r.order {
		if s := r.services[id]; !s.IsCore {
			out = append(out, s)
		}
	}
	return out
}
