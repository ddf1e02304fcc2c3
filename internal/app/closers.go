package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// closers releases bootstrap resources in reverse order of registration.
type closers struct {
	log  *zap.Logger
	list []closer
}

func (c *closers) add(name string, fn func(context.Context) error) {
	c.list = append(c.list, closer{name: name, fn: fn})
}

// closeAll runs every closer even when an earlier one fails and returns the
// joined failures.
func (c *closers) closeAll(ctx context.Context) error {
	var errs []error
	for i := len(c.list) - 1; i >= 0; i-- {
		cl := c.list[i]
		if err := cl.fn(ctx); err != nil {
			c.log.Error("Error closing resource", zap.String("resource", cl.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", cl.name, err))
			continue
		}
		c.log.Info("Resource closed", zap.String("resource", cl.name))
	}
	c.list = nil
	return errors.Join(errs...)
}
