package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider/gemini"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider/mock"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider/oaihttp"
	"github.com/yungbote/pagegen-backend/internal/platform/logger"
)

// New builds the ordered provider chain. The first configured entry is the primary provider;
// every later entry is a secondary.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*provider.Chain, error) {
	providers := make([]provider.Provider, 0, len(cfg.Providers))
	seen := map[string]bool{}
	for i, pc := range cfg.Providers {
		name := strings.TrimSpace(pc.Name)
		if name == "" {
			return nil, fmt.Errorf("provider name required")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate provider name: %s", name)
		}
		seen[name] = true

		role := provider.RoleSecondary
		if i == 0 {
			role = provider.RolePrimary
		}

		var p provider.Provider
		switch strings.ToLower(strings.TrimSpace(pc.Type)) {
		case config.TypeMock:
			p = mock.New(name, role, pc.Response)
		case "openai_http", config.TypeOAIHTTP:
			op, err := oaihttp.New(pc, role)
			if err != nil {
				return nil, fmt.Errorf("provider %q: %w", name, err)
			}
			p = op
		case config.TypeGemini:
			gp, err := gemini.New(ctx, pc, role)
			if err != nil {
				return nil, fmt.Errorf("provider %q: %w", name, err)
			}
			p = gp
		default:
			return nil, fmt.Errorf("unsupported provider type %q for %q", pc.Type, name)
		}

		if log != nil {
			log.Info("completion provider registered",
				"provider", name,
				"type", pc.Type,
				"role", role,
				"model", pc.Model,
				"configured", p.Configured(),
			)
		}
		providers = append(providers, p)
	}
	return provider.NewChain(log, providers...), nil
}
