package client

import (
	"context"
	"sync"

	"github.com/pterm/pterm"

	"github.com/strelizia53/medisys-sheroll-aws/internal/auth"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

// Provider lazily wires the identity broker and API client from the
// credential store. Construction happens once per CLI invocation; every
// command shares the same broker so identity changes (a token refresh,
// a logout) are observed everywhere.
type Provider struct {
	serverURL string
	issuer    string
	clientID  string

	once   sync.Once
	store  *auth.FileStore
	broker *sdk.Broker
	client *sdk.Client
	err    error
}

// NewProvider constructs a Provider bound to the given endpoint and
// OIDC settings. issuer and clientID may be empty; then expired tokens
// cannot be refreshed and the user is asked to log in again.
func NewProvider(serverURL, issuer, clientID string) *Provider {
	return &Provider{serverURL: serverURL, issuer: issuer, clientID: clientID}
}

func (p *Provider) init(ctx context.Context) {
	p.once.Do(func() {
		store, err := auth.NewFileStore()
		if err != nil {
			p.err = err
			return
		}
		p.store = store

		creds, err := store.LoadCredentials()
		if err != nil {
			p.err = err
			return
		}

		if creds != nil && creds.IsExpired() && creds.RefreshToken != "" && p.issuer != "" && p.clientID != "" {
			refreshed, err := sdk.RefreshCredentials(ctx, p.issuer, p.clientID, creds.RefreshToken)
			if err != nil {
				pterm.Warning.Printf("Token refresh failed (%v); please run `medisysctl auth login`.\n", err)
			} else {
				if err := store.SaveCredentials(refreshed); err != nil {
					pterm.Warning.Printf("Failed to persist refreshed credentials: %v\n", err)
				}
				creds = refreshed
			}
		}

		p.broker = sdk.NewBroker(creds)
		p.client = sdk.NewClient(p.serverURL, sdk.WithTokenSource(p.broker))
	})
}

// Store returns the credential store.
func (p *Provider) Store(ctx context.Context) (*auth.FileStore, error) {
	p.init(ctx)
	return p.store, p.err
}

// Broker returns the shared identity broker.
func (p *Provider) Broker(ctx context.Context) (*sdk.Broker, error) {
	p.init(ctx)
	return p.broker, p.err
}

// SDKClient returns the API client, authenticated through the broker
// when credentials are present.
func (p *Provider) SDKClient(ctx context.Context) (*sdk.Client, error) {
	p.init(ctx)
	return p.client, p.err
}
