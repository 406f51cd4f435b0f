package google

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cacheDirName = "clinicsched"

var accountNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateAccountName ensures the account name is safe to use in a file path
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, hyphen and underscore are allowed", account)
	}
	return nil
}

// getTokenFilePath returns the token file path for the given account
func getTokenFilePath(account string) string {
	cacheDir := filepath.Join(userCacheDir(), cacheDirName)
	return filepath.Join(cacheDir, "google-"+account+".token")
}

// MigrateDefaultToken moves a legacy single-account token file to the
// per-account layout. Safe to call repeatedly.
func MigrateDefaultToken() error {
	cacheDir := filepath.Join(userCacheDir(), cacheDirName)
	oldTokenFile := filepath.Join(cacheDir, "google.token")
	newTokenFile := getTokenFilePath("default")

	if _, err := os.Stat(oldTokenFile); os.IsNotExist(err) {
		return nil
	}
	if _, err := os.Stat(newTokenFile); err == nil {
		// Already migrated, keep the new file.
		return os.Remove(oldTokenFile)
	}

	data, err := os.ReadFile(oldTokenFile)
	if err != nil {
		return fmt.Errorf("failed to read legacy token file: %w", err)
	}
	if err := os.WriteFile(newTokenFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write migrated token file: %w", err)
	}
	return os.Remove(oldTokenFile)
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account
func HasTokenForAccount(account string) bool {
	if err := validateAccountName(account); err != nil {
		return false
	}
	_, err := os.ReadFile(getTokenFilePath(account))
	return err == nil
}

// HasToken checks if a valid OAuth token exists for the default account
func HasToken() bool {
	return HasTokenForAccount("default")
}

// GetAuthURLForAccount returns the OAuth URL for user authorization for a specific account
func GetAuthURLForAccount(account string) string {
	conf := GetOAuthConfig()
	return conf.AuthCodeURL(account, oauth2.AccessTypeOffline)
}

// GetAuthURL returns the OAuth URL for user authorization for the default account
func GetAuthURL() string {
	return GetAuthURLForAccount("default")
}

// GetAuthenticationErrorMessage returns a user-facing message explaining how
// to authenticate the given account
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("No valid Google OAuth token found for account %q. "+
		"Use the google_get_auth_url tool to obtain an authorization URL, then "+
		"complete the OAuth flow and save the code with google_save_auth_code.", account)
}

// SaveTokenForAccount exchanges an authorization code for tokens and saves them
// for the specified account
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	conf := GetOAuthConfig()

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	tokenFile := getTokenFilePath(account)

	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(tokenFile, []byte(tokenData), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// SaveToken exchanges an authorization code for tokens and saves them for the
// default account
func SaveToken(ctx context.Context, authCode string) error {
	return SaveTokenForAccount(ctx, "default", authCode)
}

// GetOAuthConfig returns the OAuth2 configuration for the Google Calendar
// integration. Client credentials come from the environment so the binary
// never ships with secrets baked in.
func GetOAuthConfig() *oauth2.Config {
	const OOB = "urn:ietf:wg:oauth:2.0:oob"
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		Endpoint:     google.Endpoint,
		RedirectURL:  OOB,
		Scopes:       DefaultOAuthScopes,
	}
}

// GetTokenSourceForAccount returns an OAuth2 token source for the stored
// token of the specified account. Returns an error if no valid token exists.
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	conf := GetOAuthConfig()

	slurp, err := os.ReadFile(getTokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s", account)
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format")
	}

	ts := conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	// Validate the token
	if _, err := ts.Token(); err != nil {
		log.Printf("Cached token invalid: %v", err)
		return nil, fmt.Errorf("cached token is invalid: %w", err)
	}

	return ts, nil
}

// GetTokenSource returns an OAuth2 token source for the default account
func GetTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return GetTokenSourceForAccount(ctx, "default")
}

// GetHTTPClient returns an HTTP client configured with OAuth2 authentication
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
func GetHTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := GetTokenSource(ctx)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	baseTransport := &http.Transport{
		ForceAttemptHTTP2: false,
	}
	transport.Base = baseTransport

	return client, nil
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		panic("No Windows TEMP or TMP environment variables found")
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
