package firebase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

const googleProvider = "google.com"

var (
	// ErrNoEmail is returned for a verified token that carries no email claim.
	ErrNoEmail = errors.New("google token has no email claim")
	// ErrUnverifiedEmail is returned when Google has not verified the address.
	ErrUnverifiedEmail = errors.New("google account email is not verified")
	// ErrNotGoogle is returned for Firebase tokens minted by another sign-in provider.
	ErrNotGoogle = errors.New("token was not issued for a google sign-in")
)

// tokenVerifier is the part of *auth.Client used here
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// GoogleVerifier checks Firebase ID tokens produced by the client's Google sign-in
type GoogleVerifier struct {
	tokens tokenVerifier
}

// GoogleIdentity is what a verified Google sign-in token tells us about the caller
type GoogleIdentity struct {
	UID   string
	Email string
	Name  string
}

// InitFirebase loads the service account and returns a verifier backed by Firebase Auth
func InitFirebase(ctx context.Context, credentialsPath string) (*GoogleVerifier, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("Firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("Firebase credentials file not found at %s", credentialsPath)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.Println("Firebase auth client initialized, Google login enabled.")
	return &GoogleVerifier{tokens: client}, nil
}

// VerifyGoogleToken verifies idToken and extracts the Google account behind it
func (v *GoogleVerifier) VerifyGoogleToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	token, err := v.tokens.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if provider := token.Firebase.SignInProvider; provider != "" && provider != googleProvider {
		return nil, fmt.Errorf("%w: %s", ErrNotGoogle, provider)
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, ErrNoEmail
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok && !verified {
		return nil, ErrUnverifiedEmail
	}

	name, _ := token.Claims["name"].(string)
	return &GoogleIdentity{UID: token.UID, Email: email, Name: name}, nil
}
