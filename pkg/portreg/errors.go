// SPDX-License-Identifier: BSD-3-Clause

package portreg

import "errors"

var (
	// ErrStillOccupied indicates the retry budget was spent and the port
	// remains bound to some process.
	ErrStillOccupied = errors.New("port still occupied after reclaim budget spent")
	// ErrScanFailed indicates the underlying platform adapter could not be
	// asked who holds a port.
	ErrScanFailed = errors.New("port scan failed")
)
