// Package oauth performs the OAuth2 authorization-code exchange with GitHub
// and Google and fetches the resulting user profile.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/babypal/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	GitHub = "github"
	Google = "google"
)

// Profile is the part of a provider's user info used for sign-in.
type Profile struct {
	Provider string
	Email    string
	Login    string
	Name     string
}

// Username derives the local username: the GitHub login, or the local part
// of the Google email address.
func (p *Profile) Username() string {
	if p.Provider == GitHub {
		return p.Login
	}
	if i := strings.Index(p.Email, "@"); i > 0 {
		return p.Email[:i]
	}
	return p.Email
}

// Provider binds an oauth2.Config to the endpoint that returns user info.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
}

// Credentials are the client id and secret registered with a provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Manager holds the configured providers. Providers without a client id are
// left out.
type Manager struct {
	providers map[string]*Provider
}

func NewManager(baseURL string, github, google Credentials) *Manager {
	m := &Manager{providers: make(map[string]*Provider)}
	base := strings.TrimRight(baseURL, "/")

	if github.ClientID != "" {
		m.Register(&Provider{
			Name: GitHub,
			Config: &oauth2.Config{
				ClientID:     github.ClientID,
				ClientSecret: github.ClientSecret,
				Endpoint:     endpoints.GitHub,
				RedirectURL:  base + "/login/oauth2/code/" + GitHub,
				Scopes:       []string{"read:user", "user:email"},
			},
			UserInfoURL: "https://api.github.com/user",
		})
	}
	if google.ClientID != "" {
		m.Register(&Provider{
			Name: Google,
			Config: &oauth2.Config{
				ClientID:     google.ClientID,
				ClientSecret: google.ClientSecret,
				Endpoint:     endpoints.Google,
				RedirectURL:  base + "/login/oauth2/code/" + Google,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		})
	}
	return m
}

func (m *Manager) Register(p *Provider) {
	m.providers[p.Name] = p
}

func (m *Manager) provider(name string) (*Provider, error) {
	p, ok := m.providers[name]
	if !ok {
		return nil, common.NotFound("OAuth2 provider " + name + " is not configured")
	}
	return p, nil
}

// AuthCodeURL returns the provider's consent page URL carrying state.
func (m *Manager) AuthCodeURL(provider, state string) (string, error) {
	p, err := m.provider(provider)
	if err != nil {
		return "", err
	}
	return p.Config.AuthCodeURL(state), nil
}

// Exchange trades code for a token and loads the user's profile with it.
func (m *Manager) Exchange(ctx context.Context, provider, code string) (*Profile, error) {
	p, err := m.provider(provider)
	if err != nil {
		return nil, err
	}

	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: oauth2 exchange failed", common.ErrorUnauthorized)
	}

	resp, err := p.Config.Client(ctx, tok).Get(p.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("oauth2 user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("oauth2 user info: %s; body: %s", resp.Status, string(b))
	}

	var info struct {
		Email string `json:"email"`
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("oauth2 user info: %w", err)
	}

	profile := &Profile{Provider: provider, Email: info.Email, Login: info.Login, Name: info.Name}

	switch provider {
	case GitHub:
		if profile.Login == "" {
			return nil, common.Validation("GitHub profile has no login")
		}
		if profile.Email == "" {
			profile.Email = profile.Login + "@github.local"
		}
	default:
		if profile.Email == "" {
			return nil, common.Validation(provider + " profile has no email")
		}
	}
	return profile, nil
}
