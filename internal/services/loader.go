package services

import (
	"context"
	"errors"
	"sync"

	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Fetch is one independent backend read of a screen
type Fetch struct {
	Name string
	Run  func(ctx context.Context) error
}

// LoadResult names the fetches that failed; their targets were left untouched
type LoadResult struct {
	Failed []string
}

// Partial reports whether any fetch failed
func (r LoadResult) Partial() bool {
	return len(r.Failed) > 0
}

// LoadAll runs the fetches concurrently and waits for all of them. Failures are
// logged and collected; a rejected session cancels the rest and is returned.
func LoadAll(ctx context.Context, fetches ...Fetch) (LoadResult, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var result LoadResult

	for _, f := range fetches {
		g.Go(func() error {
			err := f.Run(gctx)
			if err == nil {
				return nil
			}
			if errors.Is(err, gateway.ErrAuthenticationRejected) {
				return err
			}

			if errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Str("fetch", f.Name).Msg("Fetch cancelled")
			} else {
				log.Error().Err(err).Str("fetch", f.Name).Msg("Failed to load data")
			}
			mu.Lock()
			result.Failed = append(result.Failed, f.Name)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// Into returns a Fetch that stores the loaded value in *dst on success
func Into[T any](name string, dst *T, load func(ctx context.Context) (T, error)) Fetch {
	return Fetch{
		Name: name,
		Run: func(ctx context.Context) error {
			v, err := load(ctx)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		},
	}
}
