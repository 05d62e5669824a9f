package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/yungbote/pagegen-backend/internal/pagegen/generr"
	"github.com/yungbote/pagegen-backend/internal/platform/logger"
)

var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// Chain tries providers strictly in order and stops at the first usable completion.
type Chain struct {
	providers []Provider
	log       *logger.Logger
	tracer    trace.Tracer
}

func NewChain(log *logger.Logger, providers ...Provider) *Chain {
	if log == nil {
		log = logger.Nop()
	}
	return &Chain{
		providers: providers,
		log:       log.With("component", "provider.Chain"),
		tracer:    otel.Tracer("github.com/yungbote/pagegen-backend/internal/pagegen/provider"),
	}
}

func (c *Chain) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// Complete asks each configured provider once, in order. accept may reject a completion, which
// counts as that provider's failure; if the last failure was such a rejection its error is
// returned as-is. Otherwise exhaustion yields a *generr.UnavailableError. Cancellation of ctx
// stops the walk and returns ctx.Err().
func (c *Chain) Complete(ctx context.Context, req Request, accept func(Completion) error) (Completion, []generr.Attempt, error) {
	var (
		attempts   []generr.Attempt
		errs       error
		lastReject error
	)

	for _, p := range c.providers {
		if !p.Configured() {
			c.log.Debug("skipping unconfigured provider", "provider", p.Name(), "role", p.Role())
			continue
		}
		if err := ctx.Err(); err != nil {
			return Completion{}, attempts, err
		}

		start := time.Now()
		spanCtx, span := c.tracer.Start(ctx, "provider.complete", trace.WithAttributes(
			attribute.String("provider.name", p.Name()),
			attribute.String("provider.role", string(p.Role())),
			attribute.Int("request.max_tokens", req.MaxTokens),
		))

		text, err := p.Complete(spanCtx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyCompletion
		}
		elapsed := time.Since(start)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "completion failed")
			span.End()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Completion{}, attempts, ctxErr
			}
			attempts = append(attempts, attemptFor(p, err, elapsed))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			lastReject = nil
			c.log.Warn("provider attempt failed", "provider", p.Name(), "role", p.Role(), "duration_ms", elapsed.Milliseconds(), "error", err)
			continue
		}

		comp := Completion{RawText: text, Provider: p.Name(), Role: p.Role()}
		if accept != nil {
			if rerr := accept(comp); rerr != nil {
				span.RecordError(rerr)
				span.SetStatus(codes.Error, "completion rejected")
				span.End()
				attempts = append(attempts, generr.Attempt{
					Provider:   p.Name(),
					Role:       string(p.Role()),
					Message:    rerr.Error(),
					DurationMs: elapsed.Milliseconds(),
				})
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name(), rerr))
				lastReject = rerr
				c.log.Warn("provider completion rejected", "provider", p.Name(), "role", p.Role(), "error", rerr)
				continue
			}
		}

		span.SetAttributes(attribute.Int("completion.chars", len(text)))
		span.End()
		c.log.Debug("provider attempt succeeded", "provider", p.Name(), "role", p.Role(), "duration_ms", elapsed.Milliseconds())
		return comp, attempts, nil
	}

	if lastReject != nil {
		return Completion{}, attempts, lastReject
	}
	return Completion{}, attempts, &generr.UnavailableError{
		Reason:   reasonFor(attempts),
		Attempts: attempts,
		Err:      errs,
	}
}

func attemptFor(p Provider, err error, elapsed time.Duration) generr.Attempt {
	a := generr.Attempt{
		Provider:    p.Name(),
		Role:        string(p.Role()),
		Message:     err.Error(),
		Unreachable: IsTransportError(err),
		DurationMs:  elapsed.Milliseconds(),
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		a.StatusCode = sc.HTTPStatus()
	}
	return a
}

func reasonFor(attempts []generr.Attempt) generr.Reason {
	if len(attempts) == 0 {
		return generr.ReasonNotConfigured
	}
	for _, a := range attempts {
		if !a.Unreachable {
			return generr.ReasonProvidersFailed
		}
	}
	return generr.ReasonUnreachable
}

// IsTransportError reports whether err means the provider could not be reached at all.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
