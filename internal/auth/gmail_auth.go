package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/justsurfingit/job-board/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ErrNoCredentials means the OAuth client secret file is absent; the mail
// watcher stays off and the board runs without a connected mailbox.
var ErrNoCredentials = errors.New("gmail credentials file not found")

// ErrNoToken means the user has not run the authorize command yet.
var ErrNoToken = errors.New("gmail token not found, run the authorize command")

type GmailFiles struct {
	CredentialsFile string
	TokenFile       string
}

func (f GmailFiles) oauthConfig() (*oauth2.Config, error) {
	b, err := os.ReadFile(f.CredentialsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	// READONLY access to Gmail
	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}
	return config, nil
}

// GmailService builds a Gmail client from the stored token. It never prompts.
func GmailService(ctx context.Context, files GmailFiles) (*gmail.Service, error) {
	config, err := files.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(files.TokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read token file: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return svc, nil
}

// Bootstrap performs the initial auth check and publishes its outcome once.
// Gmail problems never block the board: a missing credentials or token file
// and a failed connection all publish a ready state without a mailbox, the
// latter carrying MailErr for the health endpoint.
func Bootstrap(ctx context.Context, files GmailFiles, b *Broadcaster) *gmail.Service {
	log := logging.Named("auth")

	svc, err := GmailService(ctx, files)
	if errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrNoToken) {
		log.Warn("Gmail not connected, mail watcher disabled", zap.Error(err))
		b.Publish(State{})
		return nil
	}
	if err != nil {
		log.Error("Gmail bootstrap failed, mail watcher disabled", zap.Error(err))
		b.Publish(State{MailErr: err})
		return nil
	}

	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		log.Error("Failed to read Gmail profile, mail watcher disabled", zap.Error(err))
		b.Publish(State{MailErr: fmt.Errorf("gmail profile: %w", err)})
		return nil
	}

	log.Info("Gmail connected", zap.String("email", profile.EmailAddress))
	b.Publish(State{Email: profile.EmailAddress})
	return svc
}

// Authorize runs the interactive consent flow: print the URL, read the code
// from in, exchange it and save the token.
func Authorize(ctx context.Context, files GmailFiles, in io.Reader, out io.Writer) error {
	config, err := files.oauthConfig()
	if err != nil {
		return err
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "\n---------------------------------------------------------\n")
	fmt.Fprintf(out, "OPEN THIS LINK TO AUTHORIZE GMAIL ACCESS:\n%v\n", authURL)
	fmt.Fprintf(out, "---------------------------------------------------------\n")
	fmt.Fprintf(out, "Paste the code here: ")

	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web: %w", err)
	}

	fmt.Fprintf(out, "Saving credential file to: %s\n", files.TokenFile)
	return saveToken(files.TokenFile, tok)
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
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
