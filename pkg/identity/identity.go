// Package identity integrates the external identity provider. The provider
// owns credentials and token issuance; this backend only verifies tokens and
// provisions accounts through the provider's admin API.
package identity

import "context"

// Identity is the verified result of a bearer token.
type Identity struct {
	SubjectID string
	Email     string
	Claims    map[string]interface{}
}

// Verifier checks a bearer token and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// AccountRequest describes an account to create at the provider.
type AccountRequest struct {
	Email       string
	Password    string
	DisplayName string
}

// Provisioner manages accounts at the identity provider.
type Provisioner interface {
	CreateAccount(ctx context.Context, req AccountRequest) (string, error)
	DisableAccount(ctx context.Context, subjectID string) error
	EnableAccount(ctx context.Context, subjectID string) error
}
