// SPDX-License-Identifier: BSD-3-Clause

// Package portreg scans the fixed port list the service registry
// reserves, and
// reclaiming a port some other process holds before a controller starts its
// managed occupant. Reclaim kills whatever is bound to the port, then polls
// until the port is actually free or the retry budget (5 attempts, 2s apart)
// is spent.
package portreg
