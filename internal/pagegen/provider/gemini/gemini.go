package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider"
)

// Provider generates completions with Google's Gemini API.
type Provider struct {
	name    string
	role    provider.Role
	model   string
	timeout time.Duration
	client  *genai.Client
}

// StatusError carries the HTTP status of a Gemini API failure.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string { return fmt.Sprintf("gemini api error: status=%d: %v", e.Code, e.Err) }
func (e *StatusError) Unwrap() error { return e.Err }
func (e *StatusError) HTTPStatus() int { return e.Code }

// New builds the provider. Without an API key the provider is returned unconfigured and is
// never contacted.
func New(ctx context.Context, cfg config.ProviderConfig, role provider.Role) (*Provider, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "gemini"
	}

	p := &Provider{name: name, role: role, model: model, timeout: cfg.Timeout.Duration}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return p, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *Provider) Name() string { return p.name }
func (p *Provider) Role() provider.Role { return p.role }
func (p *Provider) Configured() bool { return p.client != nil }

func (p *Provider) Complete(ctx context.Context, req provider.Request) (string, error) {
	if p.client == nil {
		return "", errors.New("gemini: api key not configured")
	}

	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case "system":
			system = append(system, text)
		case "assistant", "model":
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return "", errors.New("no messages")
	}

	temp := float32(req.Temperature)
	gc := &genai.GenerateContentConfig{
		Temperature:      &temp,
		MaxOutputTokens:  int32(req.MaxTokens),
		ResponseMIMEType: "application/json",
	}
	if len(system) > 0 {
		gc.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n"), genai.RoleUser)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, gc)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.Code, Err: err}
		}
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", provider.ErrEmptyCompletion
	}
	return text, nil
}
