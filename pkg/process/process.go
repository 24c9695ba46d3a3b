// SPDX-License-Identifier: BSD-3-Clause

package process

import (
	"context"
	"fmt"

	"cirello.io/oversight/v2"

	"github.com/GenorTG/assistant-launcher/service"
)

// New wraps s as an oversight.ChildProcess, recovering any panic into an
// error tagged with the service's name so the supervision tree's own
// restart strategy handles it like any other failed Run.
func New(s service.Service) oversight.ChildProcess {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s %w: %v", s.Name(), ErrServicePanic, r)
			}
		}()
		return s.Run(ctx)
	}
}
