// Package integrators holds the explicit ODE steppers used by the
// deterministic engines.
package integrators

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
)

var ErrUnknownMethod = fmt.Errorf("%w: unknown integration method", dynamo.ErrConfiguration)

// Methods lists the names accepted by New.
var Methods = []string{"euler", "rk4", "rk45"}

func New(method string) (dynamo.Integrator, error) {
	switch method {
	case "euler":
		return NewEuler(), nil
	case "rk4":
		return NewRK4(), nil
	case "rk45":
		return NewRK45(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}
