// Package pipeline runs prompt construction, completion acquisition and extraction/repair as one
// reusable flow parameterized by a target schema.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	"github.com/yungbote/pagegen-backend/internal/pagegen/extract"
	"github.com/yungbote/pagegen-backend/internal/pagegen/generr"
	"github.com/yungbote/pagegen-backend/internal/pagegen/prompt"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider"
	"github.com/yungbote/pagegen-backend/internal/pagegen/schema"
)

const (
	KindLanding = "landing"
	KindBio     = "bio"
)

var tracer = otel.Tracer("github.com/yungbote/pagegen-backend/internal/pagegen/pipeline")

// Completer is satisfied by *provider.Chain.
type Completer interface {
	Complete(ctx context.Context, req provider.Request, accept func(provider.Completion) error) (provider.Completion, []generr.Attempt, error)
}

// Schema is everything that differs between generators. Repair must be total.
type Schema[T any] struct {
	Name        string
	BuildPrompt func(userPrompt string) string
	Extractor   extract.Extractor
	Repair      func(v any) T

	Temperature float64
	MaxTokens   int
	// FallbackOnMalformed moves on to the next provider when a completion cannot be extracted.
	FallbackOnMalformed bool
}

type Request struct {
	Prompt string `json:"prompt"`
}

type Result[T any] struct {
	Document T
	Provider string
	Role     provider.Role
	Attempts []generr.Attempt
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return generr.InvalidRequest("prompt", "prompt is required and must be a non-empty string")
	}
	return nil
}

// Run validates req, acquires one completion and repairs it into T.
func Run[T any](ctx context.Context, c Completer, s Schema[T], req Request) (Result[T], error) {
	var res Result[T]
	if err := req.Validate(); err != nil {
		return res, err
	}

	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("pipeline.schema", s.Name),
		attribute.Bool("pipeline.fallback_on_malformed", s.FallbackOnMalformed),
	))
	defer span.End()

	preq := provider.Request{
		Messages: []provider.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: s.BuildPrompt(req.Prompt)},
		},
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}

	var parsed any
	var accept func(provider.Completion) error
	if s.FallbackOnMalformed {
		accept = func(comp provider.Completion) error {
			v, err := s.Extractor.Extract(comp.RawText)
			if err != nil {
				return withProvider(err, comp.Provider)
			}
			parsed = v
			return nil
		}
	}

	comp, attempts, err := c.Complete(ctx, preq, accept)
	res.Attempts = attempts
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, generr.Code(err))
		return res, err
	}
	res.Provider = comp.Provider
	res.Role = comp.Role
	span.SetAttributes(
		attribute.String("provider.name", comp.Provider),
		attribute.String("provider.role", string(comp.Role)),
	)

	if accept == nil {
		v, err := s.Extractor.Extract(comp.RawText)
		if err != nil {
			err = withProvider(err, comp.Provider)
			span.RecordError(err)
			span.SetStatus(codes.Error, generr.Code(err))
			return res, err
		}
		parsed = v
	}

	res.Document = s.Repair(parsed)
	return res, nil
}

func withProvider(err error, name string) error {
	var mal *generr.MalformedError
	if errors.As(err, &mal) && mal.Provider == "" {
		mal.Provider = name
	}
	return err
}

// Landing builds the landing-page schema. now supplies the footer copyright year.
func Landing(cfg config.GeneratorConfig, now func() time.Time) Schema[schema.PageDocument] {
	r := schema.LandingRepairer{Now: now}
	return Schema[schema.PageDocument]{
		Name:                KindLanding,
		BuildPrompt:         prompt.Landing,
		Extractor:           extract.Extractor{PreviewLimit: cfg.PreviewChars},
		Repair:              r.Repair,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		FallbackOnMalformed: cfg.FallbackOnMalformed,
	}
}

func Bio(cfg config.GeneratorConfig) Schema[[]schema.BioElement] {
	return Schema[[]schema.BioElement]{
		Name:                KindBio,
		BuildPrompt:         prompt.Bio,
		Extractor:           extract.Extractor{AllowArrays: true, PreviewLimit: cfg.PreviewChars},
		Repair:              schema.RepairBioElements,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		FallbackOnMalformed: cfg.FallbackOnMalformed,
	}
}
