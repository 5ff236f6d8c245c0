package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// GmailConfig reads the OAuth client (the app's identity) with send-only scope.
func GmailConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail client secret: %w", err)
	}
	config, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail client secret: %w", err)
	}
	return config, nil
}

// GmailClient returns an authorized client from a previously saved token.
// Run `internctl gmail-auth` once to create the token file.
func GmailClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	config, err := GmailConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("load gmail token %s: %w", tokenFile, err)
	}
	return config.Client(ctx, tok), nil
}

// AuthorizeGmail walks the user through the consent screen and stores the
// resulting token.
func AuthorizeGmail(ctx context.Context, config *oauth2.Config, tokenFile string, in io.Reader, out io.Writer) error {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open this link to authorize sending mail:\n%v\n\n", authURL)
	fmt.Fprint(out, "Paste the authorization code here: ")

	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return saveToken(tokenFile, tok)
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
