package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/yungbote/pagegen-backend/internal/pagegen/provider"
)

const sampleLanding = `{"title":"Mock Landing Page","description":"Generated by the mock provider","sections":[` +
	`{"id":"hero-1","type":"hero","content":{"heading":"Mock heading","subheading":"Mock subheading","image":"","cta":{"text":"Get Started","url":"#"}}},` +
	`{"id":"footer-1","type":"footer","content":{"companyName":"Mock Co"}}]}`

const sampleBio = `{"elements":[{"type":"profile","name":"Mock User","bioText":"Generated by the mock provider"},` +
	`{"type":"link","title":"Website","url":"https://example.com"}]}`

type RespondFunc func(ctx context.Context, req provider.Request) (string, error)

// Provider is a deterministic in-process provider for development and tests.
type Provider struct {
	name       string
	role       provider.Role
	configured bool
	respond    RespondFunc
	calls      atomic.Int32
}

// New returns a provider answering with response, or with a canned landing/bio document
// (picked from the instruction text) when response is empty.
func New(name string, role provider.Role, response string) *Provider {
	return NewFunc(name, role, func(ctx context.Context, req provider.Request) (string, error) {
		if strings.TrimSpace(response) != "" {
			return response, nil
		}
		if strings.Contains(lastUser(req.Messages), `"elements"`) {
			return sampleBio, nil
		}
		return sampleLanding, nil
	})
}

func NewFunc(name string, role provider.Role, fn RespondFunc) *Provider {
	return &Provider{name: name, role: role, configured: true, respond: fn}
}

// Unconfigured marks the provider as missing its credential.
func (p *Provider) Unconfigured() *Provider {
	p.configured = false
	return p
}

func (p *Provider) Name() string { return p.name }
func (p *Provider) Role() provider.Role { return p.role }
func (p *Provider) Configured() bool { return p.configured }

// Calls is how many times Complete has been invoked.
func (p *Provider) Calls() int { return int(p.calls.Load()) }

func (p *Provider) Complete(ctx context.Context, req provider.Request) (string, error) {
	p.calls.Add(1)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return p.respond(ctx, req)
}

func lastUser(messages []provider.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			return messages[i].Content
		}
	}
	return ""
}
