package auth

import (
	"context"

	"github.com/mmynk/finpal/internal/models"
)

// Authenticator is the contract for account creation and credential
// verification. Implementations decide what a credential is (password,
// OAuth token, passkey assertion); the service layer only routes them.
type Authenticator interface {
	// Register creates a new account. The credential format depends on the
	// implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the matching user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the implementation's
	// strength or format rules without touching storage.
	ValidateCredential(credential string) error
}
