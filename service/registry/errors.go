// SPDX-License-Identifier: BSD-3-Clause

package registry

import "errors"

var (
	// ErrDuplicatePort indicates two services declare the same listen port.
	ErrDuplicatePort = errors.New("duplicate service port")
	// ErrDuplicateID indicates two services share an id.
	ErrDuplicateID = errors.New("duplicate service id")
	// ErrUnknownManager indicates a service's ManagedByPeer names an id not
	// present in the registry.
	ErrUnknownManager = errors.New("managed-by-peer references unknown service")
	// ErrManagedHasStartCmd indicates a managed-by-peer service also
	// declares its own start recipe; managed-by-peer services must have
	// no start command of their own.
	ErrManagedHasStartCmd = errors.New("managed-by-peer service must not declare a start command")
	// ErrMultipleManagers indicates more than one service claims to be the
	// manager of the same peer.
	ErrMultipleManagers = errors.New("service has more than one declared manager")
	// ErrNotFound indicates a lookup by id found nothing.
	ErrNotFound = errors.New("service not found in registry")
)
