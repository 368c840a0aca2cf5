// Package identity resolves an OAuth authorization code into a
// verified user identity plus offline calendar tokens.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Identity is what the provider knows about the signed-in user.
type Identity struct {
	Email        string
	Name         string
	AccessToken  string
	RefreshToken string
}

// Provider exchanges an authorization code for an identity.
type Provider interface {
	Exchange(ctx context.Context, code, redirectURI string) (*Identity, error)
}

const defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider implements Provider against Google's OAuth endpoints.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	userinfoURL  string
	timeout      time.Duration
}

// NewGoogleProvider builds a provider for the given OAuth app.
func NewGoogleProvider(clientID, clientSecret string) *GoogleProvider {
	return &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		userinfoURL:  defaultUserinfoURL,
		timeout:      10 * time.Second,
	}
}

// Exchange swaps the authorization code for tokens and fetches the
// user's profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code, redirectURI string) (*Identity, error) {
	conf := &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     google.Endpoint,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	client := conf.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var profile struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("userinfo response missing email")
	}

	return &Identity{
		Email:        profile.Email,
		Name:         profile.Name,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}
