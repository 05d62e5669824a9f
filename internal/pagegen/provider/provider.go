package provider

import "context"

// Role is the position a provider holds in the fallback order.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completion is the raw text a provider returned, tagged with who produced it.
type Completion struct {
	RawText  string
	Provider string
	Role     Role
}

type Provider interface {
	Name() string
	Role() Role
	// Configured reports whether the provider has what it needs (e.g. a credential) to be contacted.
	Configured() bool
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusCoder is implemented by errors that carry an upstream HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}
