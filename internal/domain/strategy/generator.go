package strategy

import (
	"context"

	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/domain/trend"
)

// Generator synthesizes a marketing strategy from read-only snapshots of the
// two engines' derived state. Passing snapshots keeps the generator free of
// hidden coupling to live engine instances.
type Generator interface {
	GenerateStrategy(ctx context.Context, opts Options, trends *trend.Data, competitors *competitor.Data) Result
}
