// Package service wires the generation pipeline to auditing, metrics and logging.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/yungbote/pagegen-backend/internal/observability"
	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	"github.com/yungbote/pagegen-backend/internal/pagegen/generr"
	"github.com/yungbote/pagegen-backend/internal/pagegen/pipeline"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider"
	"github.com/yungbote/pagegen-backend/internal/pagegen/schema"
	"github.com/yungbote/pagegen-backend/internal/pagegen/store"
	"github.com/yungbote/pagegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/pagegen-backend/internal/platform/logger"
)

var ErrNoProviderConfigured = errors.New("no completion provider is configured")

// Completer is satisfied by *provider.Chain.
type Completer interface {
	pipeline.Completer
	Providers() []provider.Provider
}

type Options struct {
	Store   store.Store
	Metrics *observability.Metrics
	Now     func() time.Time
}

type Service struct {
	chain   Completer
	landing pipeline.Schema[schema.PageDocument]
	bio     pipeline.Schema[[]schema.BioElement]
	store   store.Store
	metrics *observability.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func New(cfg *config.Config, chain Completer, baseLog *logger.Logger, opts Options) *Service {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	st := opts.Store
	if st == nil {
		st = store.Noop{}
	}
	return &Service{
		chain:   chain,
		landing: pipeline.Landing(cfg.Landing, now),
		bio:     pipeline.Bio(cfg.Bio),
		store:   st,
		metrics: opts.Metrics,
		log:     baseLog.With("service", "GenerationService"),
		now:     now,
	}
}

func (s *Service) GenerateLanding(ctx context.Context, req pipeline.Request) (pipeline.Result[schema.PageDocument], error) {
	return run(ctx, s, s.landing, req)
}

func (s *Service) GenerateBio(ctx context.Context, req pipeline.Request) (pipeline.Result[[]schema.BioElement], error) {
	return run(ctx, s, s.bio, req)
}

func (s *Service) RecentRuns(ctx context.Context, kind string, limit int) ([]*store.GenerationRun, error) {
	switch kind {
	case "", pipeline.KindLanding, pipeline.KindBio:
	default:
		return nil, generr.InvalidRequest("kind", "kind must be landing or bio")
	}
	return s.store.Recent(ctx, kind, limit)
}

// Ready reports whether at least one provider can be contacted and the store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	configured := false
	for _, p := range s.chain.Providers() {
		if p.Configured() {
			configured = true
			break
		}
	}
	if !configured {
		return ErrNoProviderConfigured
	}
	return s.store.Ping(ctx)
}

func run[T any](ctx context.Context, s *Service, sc pipeline.Schema[T], req pipeline.Request) (pipeline.Result[T], error) {
	start := s.now()
	res, err := pipeline.Run(ctx, s.chain, sc, req)
	elapsed := s.now().Sub(start)

	var inv *generr.InvalidRequestError
	if errors.As(err, &inv) {
		return res, err
	}

	for _, a := range res.Attempts {
		s.metrics.IncProviderFailure(a.Provider, a.Role)
	}
	outcome := "ok"
	if err != nil {
		outcome = generr.Code(err)
	}
	s.metrics.ObserveGeneration(sc.Name, res.Provider, outcome, elapsed)

	fields := []interface{}{
		"kind", sc.Name,
		"prompt", req.Prompt,
		"provider", res.Provider,
		"role", res.Role,
		"attempts", len(res.Attempts),
		"duration_ms", elapsed.Milliseconds(),
	}
	fields = append(fields, ctxutil.LogFields(ctx)...)
	if err != nil {
		s.log.Warn("generation failed", append(fields, "error_code", generr.Code(err), "error", err)...)
	} else {
		s.log.Info("generation completed", fields...)
	}

	s.record(ctx, sc.Name, req, res.Provider, string(res.Role), res.Document, res.Attempts, err, elapsed)
	return res, err
}

// record is best effort: failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, kind string, req pipeline.Request, providerName, role string, doc any, attempts []generr.Attempt, runErr error, elapsed time.Duration) {
	run := &store.GenerationRun{
		Kind:       kind,
		RequestID:  ctxutil.RequestID(ctx),
		PromptHash: logger.Hash(req.Prompt),
		Provider:   providerName,
		Role:       role,
		Status:     store.StatusSucceeded,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  s.now().UTC(),
	}
	if len(attempts) > 0 {
		if b, err := json.Marshal(attempts); err == nil {
			run.Attempts = b
		}
	}
	if runErr != nil {
		run.Status = store.StatusFailed
		run.ErrorCode = generr.Code(runErr)
		var mal *generr.MalformedError
		if errors.As(runErr, &mal) {
			run.RawPreview = mal.Preview
			run.Provider = mal.Provider
		}
	} else if b, err := json.Marshal(doc); err == nil {
		run.Document = b
	}

	if err := s.store.Record(context.WithoutCancel(ctx), run); err != nil {
		s.log.Warn("failed to record generation run", "kind", kind, "error", err)
	}
}
