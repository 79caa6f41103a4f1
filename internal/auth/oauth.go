package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

// ClientCredentialsConfig describes an OAuth2 client-credentials grant.
type ClientCredentialsConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// ClientCredentials fetches tokens from an OAuth2 token endpoint and reuses
// them until they expire.
type ClientCredentials struct {
	source oauth2.TokenSource
}

// NewClientCredentials builds the provider. ctx carries the HTTP client used
// for token requests (see oauth2.HTTPClient) and must outlive the provider.
func NewClientCredentials(ctx context.Context, cfg ClientCredentialsConfig) *ClientCredentials {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &ClientCredentials{
		source: cc.TokenSource(ctx),
	}
}

func (c *ClientCredentials) Token(_ context.Context) (string, error) {
	tok, err := c.source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: client credentials grant: %v", domain.ErrAuth, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: token endpoint returned an empty access token", domain.ErrAuth)
	}
	return tok.Type() + " " + tok.AccessToken, nil
}
