package account

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/models"
)

const (
	googleTokenURL = "https://oauth2.googleapis.com/token"
	googleUserURL  = "https://openidconnect.googleapis.com/v1/userinfo"
)

type googleTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleClient talks to Google's OAuth endpoints. TokenURL and UserURL
// default to Google's production hosts and exist only so tests can
// point the client at a local server.
type GoogleClient struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string
	UserURL      string
	HTTP         *http.Client
}

// NewGoogleClient builds a client from service configuration.
func NewGoogleClient(cfg models.Config) *GoogleClient {
	return &GoogleClient{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}
}

// ExchangeCode trades an authorization code for tokens and resolves the
// Google subject behind them. An empty redirectURI falls back to the
// configured redirect URL.
func (g *GoogleClient) ExchangeCode(ctx context.Context, code, redirectURI string) (ProviderTokens, error) {
	var out ProviderTokens
	if code == "" {
		return out, apperr.WithMessage(apperr.ErrInvalidInput, "authorization code is required")
	}
	if g.ClientID == "" {
		return out, apperr.WithMessage(apperr.ErrProvider, "google client id not configured")
	}

	token, err := g.exchange(ctx, code, redirectURI)
	if err != nil {
		return out, err
	}
	info, err := g.userInfo(ctx, token.AccessToken)
	if err != nil {
		return out, err
	}
	if info.Sub == "" {
		return out, apperr.WithMessage(apperr.ErrProvider, "google subject missing from userinfo")
	}

	out = ProviderTokens{
		ProviderID:   info.Sub,
		Email:        models.NormalizeEmail(info.Email),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if token.ExpiresIn > 0 {
		out.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return out, nil
}

func (g *GoogleClient) exchange(ctx context.Context, code, redirectURI string) (googleTokenResponse, error) {
	var token googleTokenResponse

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", g.ClientID)
	if g.ClientSecret != "" {
		form.Set("client_secret", g.ClientSecret)
	}
	if redirectURI == "" {
		redirectURI = g.RedirectURL
	}
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	endpoint := g.TokenURL
	if endpoint == "" {
		endpoint = googleTokenURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return token, apperr.Wrap(err, apperr.ErrProvider, "")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client().Do(req)
	if err != nil {
		return token, apperr.Wrap(err, apperr.ErrProvider, "")
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return token, apperr.WithMessage(apperr.ErrProvider, fmt.Sprintf("google token exchange failed: %s", string(body)))
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return token, apperr.Wrap(err, apperr.ErrProvider, "")
	}
	if token.AccessToken == "" {
		return token, apperr.WithMessage(apperr.ErrProvider, "missing access_token from google")
	}
	return token, nil
}

func (g *GoogleClient) userInfo(ctx context.Context, accessToken string) (googleUserInfo, error) {
	var info googleUserInfo

	endpoint := g.UserURL
	if endpoint == "" {
		endpoint = googleUserURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return info, apperr.Wrap(err, apperr.ErrProvider, "")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client().Do(req)
	if err != nil {
		return info, apperr.Wrap(err, apperr.ErrProvider, "")
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return info, apperr.WithMessage(apperr.ErrProvider, fmt.Sprintf("google userinfo failed: %s", string(body)))
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return info, apperr.Wrap(err, apperr.ErrProvider, "")
	}
	return info, nil
}

func (g *GoogleClient) client() *http.Client {
	if g.HTTP != nil {
		return g.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}
