package bot

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/proto"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
)

// Mover sends a move to the server.
type Mover interface {
	SendMove(dir proto.Direction) error
}

// Result summarizes a finished run.
type Result struct {
	Sent   int
	Failed int
}

// Run plays policy until it ends or ctx is cancelled. A nil limiter disables
// rate limiting. Send failures are logged and the run continues.
func Run(ctx context.Context, policy Policy, mover Mover, limiter *rate.Limiter, logger telemetry.Logger) (Result, error) {
	if logger == nil {
		logger = telemetry.Discard()
	}
	var result Result
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		step, ok := policy.Next()
		if !ok {
			return result, nil
		}
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(step.Delay):
			}
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return result, ctxErr
				}
				return result, err
			}
		}
		if err := mover.SendMove(step.Dir); err != nil {
			result.Failed++
			if !errors.Is(err, context.Canceled) {
				logger.Printf("bot move %s failed: %v", step.Dir, err)
			}
			continue
		}
		result.Sent++
	}
}
