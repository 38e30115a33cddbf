package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

var ErrGoogleNotConfigured = errors.New("google sign-in is not configured")

type GoogleConfig struct {
	Config     *oauth2.Config
	HTTPClient *http.Client
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// NewGoogleConfig returns nil when no client credentials are configured.
func NewGoogleConfig(cfg GoogleOAuth) *GoogleConfig {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}

	return &GoogleConfig{
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		HTTPClient: http.DefaultClient,
	}
}

func (g *GoogleConfig) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if g == nil {
		return nil, ErrGoogleNotConfigured
	}
	return g.Config.Exchange(ctx, code)
}

// GetUserInfo fetches the profile for an access token.
func (g *GoogleConfig) GetUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	if g == nil {
		return nil, ErrGoogleNotConfigured
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.HTTPClient)
	client := g.Config.Client(ctx, token)
	return fetchUserInfo(client, googleUserInfoURL)
}

// VerifyIDToken validates an ID token with Google's tokeninfo endpoint.
func (g *GoogleConfig) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	if g == nil {
		return nil, ErrGoogleNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleTokenInfoURL+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	info, err := decodeUserInfo(resp)
	if err != nil {
		return nil, err
	}
	if info.ID == "" {
		info.ID = info.Sub
	}
	return info, nil
}

func fetchUserInfo(client *http.Client, endpoint string) (*GoogleUserInfo, error) {
	resp, err := client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()
	return decodeUserInfo(resp)
}

func decodeUserInfo(resp *http.Response) (*GoogleUserInfo, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google returned status %d", resp.StatusCode)
	}

	var userInfo GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &userInfo, nil
}
