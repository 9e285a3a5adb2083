package services

import (
	"context"
	"errors"

	"github.com/bellapacxx/bingo-engine/game"
)

// Fanout delivers each event to every sink, in order. One failing sink does
// not stop the rest.
type Fanout []game.Broadcaster

func (f Fanout) Publish(ctx context.Context, ev game.Event) error {
	var errs []error
	for _, b := range f {
		if err := b.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
