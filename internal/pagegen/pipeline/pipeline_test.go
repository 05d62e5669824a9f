package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	"github.com/yungbote/pagegen-backend/internal/pagegen/generr"
	"github.com/yungbote/pagegen-backend/internal/pagegen/pipeline"
	"github.com/yungbote/pagegen-backend/internal/pagegen/prompt"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider/mock"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider/oaihttp"
	"github.com/yungbote/pagegen-backend/internal/pagegen/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

func landingConfig(fallback bool) config.GeneratorConfig {
	return config.GeneratorConfig{Temperature: 0.7, MaxTokens: 4000, FallbackOnMalformed: fallback, PreviewChars: 1000}
}

func bioConfig() config.GeneratorConfig {
	return config.GeneratorConfig{Temperature: 0.7, MaxTokens: 1024, PreviewChars: 1000}
}

func canned(name string, role provider.Role, text string) *mock.Provider {
	return mock.NewFunc(name, role, func(context.Context, provider.Request) (string, error) {
		return text, nil
	})
}

func failing(name string, role provider.Role, err error) *mock.Provider {
	return mock.NewFunc(name, role, func(context.Context, provider.Request) (string, error) {
		return "", err
	})
}

func TestRunRejectsEmptyPromptBeforeNetwork(t *testing.T) {
	p := canned("openai", provider.RolePrimary, `{"title":"x"}`)
	chain := provider.NewChain(nil, p)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := pipeline.Run(context.Background(), chain, pipeline.Landing(landingConfig(false), fixedNow), pipeline.Request{Prompt: in})
		var inv *generr.InvalidRequestError
		require.True(t, errors.As(err, &inv), "prompt %q: %v", in, err)
	}
	require.Zero(t, p.Calls())
}

func TestRunSendsSystemAndInstruction(t *testing.T) {
	var seen provider.Request
	p := mock.NewFunc("openai", provider.RolePrimary, func(_ context.Context, req provider.Request) (string, error) {
		seen = req
		return `{"title":"Foo"}`, nil
	})
	_, err := pipeline.Run(context.Background(), provider.NewChain(nil, p),
		pipeline.Landing(landingConfig(false), fixedNow), pipeline.Request{Prompt: "A coffee shop"})
	require.NoError(t, err)

	require.Len(t, seen.Messages, 2)
	require.Equal(t, "system", seen.Messages[0].Role)
	require.Equal(t, prompt.System, seen.Messages[0].Content)
	require.Equal(t, "user", seen.Messages[1].Role)
	require.Equal(t, prompt.Landing("A coffee shop"), seen.Messages[1].Content)
	require.Equal(t, 0.7, seen.Temperature)
	require.Equal(t, 4000, seen.MaxTokens)
}

func TestRunLandingWrappedInProse(t *testing.T) {
	p := canned("openai", provider.RolePrimary, `Sure! Here you go: {"title":"Foo"} Hope that helps!`)
	res, err := pipeline.Run(context.Background(), provider.NewChain(nil, p),
		pipeline.Landing(landingConfig(false), fixedNow), pipeline.Request{Prompt: "foo"})
	require.NoError(t, err)

	require.Equal(t, "Foo", res.Document.Title)
	require.Len(t, res.Document.Sections, 1)
	require.Equal(t, schema.SectionHero, res.Document.Sections[0].Type)
	require.Equal(t, schema.DefaultStyles, res.Document.Styles)
	require.Equal(t, "openai", res.Provider)
	require.Equal(t, provider.RolePrimary, res.Role)
}

func TestRunGarbageIsMalformed(t *testing.T) {
	garbage := "the model is having a bad day " + strings.Repeat("z", 2000)
	p := canned("openai", provider.RolePrimary, garbage)
	_, err := pipeline.Run(context.Background(), provider.NewChain(nil, p),
		pipeline.Landing(landingConfig(false), fixedNow), pipeline.Request{Prompt: "foo"})

	var mal *generr.MalformedError
	require.True(t, errors.As(err, &mal), "got %T %v", err, err)
	require.Equal(t, "openai", mal.Provider)
	require.Equal(t, garbage[:1000], mal.Preview)
}

func TestRunUnconfiguredPrimaryGoesStraightToSecondary(t *testing.T) {
	primary := canned("openai", provider.RolePrimary, `{"title":"primary"}`).Unconfigured()
	secondary := canned("local", provider.RoleSecondary, `{"title":"secondary"}`)

	res, err := pipeline.Run(context.Background(), provider.NewChain(nil, primary, secondary),
		pipeline.Landing(landingConfig(false), fixedNow), pipeline.Request{Prompt: "foo"})
	require.NoError(t, err)
	require.Equal(t, "secondary", res.Document.Title)
	require.Equal(t, provider.RoleSecondary, res.Role)
	require.Zero(t, primary.Calls())
	require.Equal(t, 1, secondary.Calls())
}

func TestRunFallbackOnMalformed(t *testing.T) {
	newChain := func() (*mock.Provider, *mock.Provider, *provider.Chain) {
		primary := canned("openai", provider.RolePrimary, "no json here")
		secondary := canned("local", provider.RoleSecondary, `{"title":"from local"}`)
		return primary, secondary, provider.NewChain(nil, primary, secondary)
	}

	t.Run("enabled", func(t *testing.T) {
		primary, secondary, chain := newChain()
		res, err := pipeline.Run(context.Background(), chain,
			pipeline.Landing(landingConfig(true), fixedNow), pipeline.Request{Prompt: "foo"})
		require.NoError(t, err)
		require.Equal(t, "from local", res.Document.Title)
		require.Equal(t, "local", res.Provider)
		require.Len(t, res.Attempts, 1)
		require.Equal(t, "openai", res.Attempts[0].Provider)
		require.Equal(t, 1, primary.Calls())
		require.Equal(t, 1, secondary.Calls())
	})

	t.Run("disabled", func(t *testing.T) {
		primary, secondary, chain := newChain()
		_, err := pipeline.Run(context.Background(), chain,
			pipeline.Landing(landingConfig(false), fixedNow), pipeline.Request{Prompt: "foo"})
		var mal *generr.MalformedError
		require.True(t, errors.As(err, &mal))
		require.Equal(t, "openai", mal.Provider)
		require.Equal(t, 1, primary.Calls())
		require.Zero(t, secondary.Calls())
	})

	t.Run("all malformed", func(t *testing.T) {
		primary := canned("openai", provider.RolePrimary, "nope")
		secondary := canned("local", provider.RoleSecondary, "still nope")
		_, err := pipeline.Run(context.Background(), provider.NewChain(nil, primary, secondary),
			pipeline.Landing(landingConfig(true), fixedNow), pipeline.Request{Prompt: "foo"})
		var mal *generr.MalformedError
		require.True(t, errors.As(err, &mal))
		require.Equal(t, "local", mal.Provider)
		require.Equal(t, "still nope", mal.Preview)
	})
}

func TestRunUnavailable(t *testing.T) {
	upstream := &oaihttp.HTTPError{StatusCode: 500, Body: "boom"}
	primary := failing("openai", provider.RolePrimary, upstream)
	secondary := failing("local", provider.RoleSecondary, upstream)

	res, err := pipeline.Run(context.Background(), provider.NewChain(nil, primary, secondary),
		pipeline.Landing(landingConfig(false), fixedNow), pipeline.Request{Prompt: "foo"})
	var un *generr.UnavailableError
	require.True(t, errors.As(err, &un))
	require.Equal(t, generr.ReasonProvidersFailed, un.Reason)
	require.Len(t, res.Attempts, 2)
	require.Equal(t, 500, res.Attempts[0].StatusCode)
}

func TestRunNoProviderConfigured(t *testing.T) {
	primary := canned("openai", provider.RolePrimary, "{}").Unconfigured()
	_, err := pipeline.Run(context.Background(), provider.NewChain(nil, primary),
		pipeline.Bio(bioConfig()), pipeline.Request{Prompt: "foo"})
	var un *generr.UnavailableError
	require.True(t, errors.As(err, &un))
	require.Equal(t, generr.ReasonNotConfigured, un.Reason)
}

func TestRunBio(t *testing.T) {
	var maxTokens atomic.Int32
	p := mock.NewFunc("local", provider.RoleSecondary, func(_ context.Context, req provider.Request) (string, error) {
		maxTokens.Store(int32(req.MaxTokens))
		return "```json\n{\"elements\":[{\"type\":\"link\",\"order\":1},{\"type\":\"profile\",\"order\":0}]}\n```", nil
	})
	res, err := pipeline.Run(context.Background(), provider.NewChain(nil, p),
		pipeline.Bio(bioConfig()), pipeline.Request{Prompt: "drummer"})
	require.NoError(t, err)
	require.Equal(t, int32(1024), maxTokens.Load())
	require.Len(t, res.Document, 2)
	require.Equal(t, schema.BioProfile, res.Document[0].Type)
	require.Equal(t, schema.BioLink, res.Document[1].Type)
	require.NotContains(t, res.Document[1].Fields, "url")
}

func TestRunBioBareArray(t *testing.T) {
	p := canned("local", provider.RoleSecondary, `Elements: [{"type":"link"}]`)
	res, err := pipeline.Run(context.Background(), provider.NewChain(nil, p),
		pipeline.Bio(bioConfig()), pipeline.Request{Prompt: "x"})
	require.NoError(t, err)
	require.Len(t, res.Document, 1)
	require.Equal(t, 0, res.Document[0].Order)
}

func TestRunBioIgnoresBracketedProse(t *testing.T) {
	p := canned("local", provider.RoleSecondary,
		`Step [1]: here are your elements {"elements":[{"type":"profile","name":"Ann"},{"type":"link","url":"https://x"}]}`)
	res, err := pipeline.Run(context.Background(), provider.NewChain(nil, p),
		pipeline.Bio(bioConfig()), pipeline.Request{Prompt: "x"})
	require.NoError(t, err)
	require.Len(t, res.Document, 2)
	require.Equal(t, schema.BioProfile, res.Document[0].Type)
	require.Equal(t, "Ann", res.Document[0].Fields["name"])
	require.Equal(t, "https://x", res.Document[1].Fields["url"])
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := canned("openai", provider.RolePrimary, `{"title":"x"}`)
	_, err := pipeline.Run(ctx, provider.NewChain(nil, p),
		pipeline.Landing(landingConfig(false), fixedNow), pipeline.Request{Prompt: "foo"})
	require.ErrorIs(t, err, context.Canceled)
}
