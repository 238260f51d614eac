package native

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// Status is the result code of Initialize. Non-zero codes are returned as
// errors and match dynamo.ErrConfiguration.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidOption
	StatusInvalidBoundary
	StatusInvalidSampling
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidOption:
		return "invalid option"
	case StatusInvalidBoundary:
		return "invalid boundary conditions"
	case StatusInvalidSampling:
		return "invalid sampling policy"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) Error() string {
	return fmt.Sprintf("native: status %d: %s", int(s), s.String())
}

func (s Status) Is(target error) bool {
	return s != StatusOK && target == dynamo.ErrConfiguration
}
