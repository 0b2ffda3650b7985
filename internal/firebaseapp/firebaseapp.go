// Package firebaseapp builds the Firebase Admin app shared by the identity
// resolver and the Firestore migration source.
package firebaseapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/dukerupert/chorely/internal/config"
)

type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// New initializes a Firebase app from a credentials file or from inline
// service account fields.
func New(ctx context.Context, cfg config.Firebase) (*firebase.App, error) {
	if !cfg.Configured() {
		return nil, errors.New("firebase: credentials not configured")
	}
	opt, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	return app, nil
}

func credentials(cfg config.Firebase) (option.ClientOption, error) {
	if cfg.CredentialsFile != "" {
		return option.WithCredentialsFile(cfg.CredentialsFile), nil
	}
	data, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}
	return option.WithCredentialsJSON(data), nil
}

func credentialsJSON(cfg config.Firebase) ([]byte, error) {
	data, err := json.Marshal(serviceAccount{
		Type:        "service_account",
		ProjectID:   cfg.ProjectID,
		PrivateKey:  cfg.PrivateKey,
		ClientEmail: cfg.ClientEmail,
		TokenURI:    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("firebase: encode credentials: %w", err)
	}
	return data, nil
}
