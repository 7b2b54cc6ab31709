package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Profile is the normalized identity returned by every OAuth provider.
// ProviderAccountID is the provider's stable user identifier; together with
// Provider it uniquely names a linked account.
type Profile struct {
	Provider          string
	ProviderAccountID string
	Name              string
	Username          string // provider handle, may be empty (Google)
	Email             string
	Image             string
}

// Provider abstracts one OAuth identity source. The callback handler only
// needs the redirect URL and the code-for-profile exchange; the link flow
// itself never sees OAuth mechanics.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// --- GitHub ---

// GitHubProvider implements the GitHub Authorization Code flow on
// golang.org/x/oauth2. The code-for-token exchange runs server-to-server
// with the client secret; tokens never reach the browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider. callbackURL must exactly
// match the Authorization callback URL registered with the OAuth app.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

func (p *GitHubProvider) Name() string { return "github" }

// AuthURL returns the GitHub authorization URL for the given CSRF state.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// githubUser is the slice of the GitHub /user response we care about.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty if the user hides their email
	AvatarURL string `json:"avatar_url"`
}

// Exchange trades the authorization code for a normalized Profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging GitHub code: %w", err)
	}

	var gh githubUser
	if err := fetchJSON(ctx, p.config.Client(ctx, token), "https://api.github.com/user", &gh); err != nil {
		return nil, err
	}
	if gh.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	return &Profile{
		Provider:          p.Name(),
		ProviderAccountID: strconv.FormatInt(gh.ID, 10),
		Name:              name,
		Username:          gh.Login,
		Email:             gh.Email,
		Image:             gh.AvatarURL,
	}, nil
}

// --- Google ---

// GoogleProvider implements the Google Authorization Code flow.
type GoogleProvider struct {
	config *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// googleUser is the slice of the userinfo response we care about.
type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging Google code: %w", err)
	}

	var gu googleUser
	if err := fetchJSON(ctx, p.config.Client(ctx, token), "https://www.googleapis.com/oauth2/v2/userinfo", &gu); err != nil {
		return nil, err
	}
	if gu.ID == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty ID)")
	}

	return &Profile{
		Provider:          p.Name(),
		ProviderAccountID: gu.ID,
		Name:              gu.Name,
		Email:             gu.Email,
		Image:             gu.Picture,
	}, nil
}

// fetchJSON GETs url with the token-bearing client and decodes the JSON
// body into out.
func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: building profile request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: %s returned status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("auth: decoding %s response: %w", url, err)
	}
	return nil
}
