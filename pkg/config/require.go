package config

import (
	"errors"
	"fmt"
)

var ErrInvalid = errors.New("invalid configuration")

// Check collects unmet requirements so startup can report all of them at once.
// The zero value is ready to use.
type Check struct {
	errs []error
}

func (c *Check) NonEmpty(envName, value string) *Check {
	if value == "" {
		c.errs = append(c.errs, fmt.Errorf("%w: missing required env %s", ErrInvalid, envName))
	}
	return c
}

func (c *Check) NonEmptyBytes(envName string, value []byte) *Check {
	return c.NonEmpty(envName, string(value))
}

func (c *Check) Positive(envName string, value int) *Check {
	if value <= 0 {
		c.errs = append(c.errs, fmt.Errorf("%w: env %s must be positive, got %d", ErrInvalid, envName, value))
	}
	return c
}

// Err joins every failure, or returns nil when all requirements hold.
func (c *Check) Err() error {
	return errors.Join(c.errs...)
}
