package output

import (
	"context"
	"errors"
	"fmt"

	"MarketPulse/internal/model"
)

// Publisher delivers a finished snapshot to one destination.
type Publisher interface {
	Publish(ctx context.Context, snap *model.MarketSnapshot) error
	Name() string
}

// Multi fans a snapshot out to every publisher. A failing publisher does not
// stop the others; all errors are returned joined.
type Multi []Publisher

func (m Multi) Name() string { return "multi" }

func (m Multi) Publish(ctx context.Context, snap *model.MarketSnapshot) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
