// SPDX-License-Identifier: BSD-3-Clause

package process

import "errors"

// ErrServicePanic indicates a supervised service panicked during Run.
var ErrServicePanic = errors.New("service panicked during execution")
