// Package auth establishes the trust boundary of the service: it trades
// one-time GitHub authorization codes for access tokens, and validates the
// encrypted session cookie on every protected request. There is no
// server-side session store — the cookie itself is the session.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// ErrExchangeFailed wraps any failure of the code-for-token exchange:
// network errors, provider rejection, expired or already-used codes.
// Authorization codes are single-use, so the exchange is never retried —
// the caller has to restart the authorization flow for a fresh code.
var ErrExchangeFailed = errors.New("auth: identity exchange failed")

// Provider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// The frontend handles the redirect dance itself and POSTs the resulting
// code to /users/auth, so the provider only needs the server-to-server
// half: exchanging the code for an access token using the client secret.
type Provider struct {
	config *oauth2.Config
}

// NewProvider creates a Provider with the application's registered OAuth
// credentials (GitHub → Settings → Developer settings → OAuth Apps).
func NewProvider(clientID, clientSecret string) *Provider {
	return &Provider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
		},
	}
}

// Exchange trades an authorization code for a GitHub access token.
// Failures come back wrapped in ErrExchangeFailed and must not be retried.
func (p *Provider) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return tok.AccessToken, nil
}
