package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	CredentialsFile = "credentials.json"
	TokenFile       = "token.json"

	authPort = "7319"
)

var scopes = []string{calendar.CalendarEventsScope}

// LoadConfig reads the OAuth client configuration from credentials.json
// inside dataPath.
func LoadConfig(dataPath string) (*oauth2.Config, error) {
	raw, err := os.ReadFile(filepath.Join(dataPath, CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("unable to read client credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(raw, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client credentials: %w", err)
	}
	conf.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", authPort)
	return conf, nil
}

// NewService builds an authenticated Calendar service from the token
// previously saved by Authorize. The oauth2 client refreshes the access
// token transparently when a refresh token is present.
func NewService(ctx context.Context, dataPath string) (*calendar.Service, error) {
	conf, err := LoadConfig(dataPath)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(filepath.Join(dataPath, TokenFile))
	if err != nil {
		return nil, fmt.Errorf("no saved token, run the authorize command first: %w", err)
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to build calendar service: %w", err)
	}
	return srv, nil
}

// Authorize walks the user through the authorization-code flow, capturing
// the redirect on a local listener, and saves the resulting token inside
// dataPath for later passes.
func Authorize(ctx context.Context, dataPath string) error {
	conf, err := LoadConfig(dataPath)
	if err != nil {
		return err
	}

	codeCh := make(chan string)
	errCh := make(chan error)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%s", authPort))
	if err != nil {
		return fmt.Errorf("unable to listen for the OAuth redirect: %w", err)
	}
	defer listener.Close()

	srv := http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "authorization code missing", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code missing from redirect")
				return
			}
			fmt.Fprint(w, "Authorization successful, you can close this window.")
			codeCh <- code
		}),
	}
	go srv.Serve(listener)
	defer srv.Shutdown(ctx)

	authURL := conf.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize:\n%s\n", authURL)

	select {
	case code := <-codeCh:
		tok, err := conf.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("unable to exchange authorization code: %w", err)
		}
		return saveToken(filepath.Join(dataPath, TokenFile), tok)
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("authorization timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := oauth2.Token{}
	if err = json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("unable to decode token from %s: %w", path, err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
