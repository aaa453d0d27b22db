package config

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthConfig builds the Google OAuth2 client configuration, or nil when
// Google sign-in is not configured.
func OAuthConfig(g GoogleConfig) *oauth2.Config {
	if !g.Enabled() {
		return nil
	}
	scopes := []string{"openid", "email", "profile"}
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}
