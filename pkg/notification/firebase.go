package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// WebConfig is the Firebase web app config handed to the worker
type WebConfig struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	DatabaseURL       string `json:"databaseURL"`
	ProjectID         string `json:"projectId"`
	StorageBucket     string `json:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId"`
	AppID             string `json:"appId"`
}

// App bundles the Firebase app and its messaging client
type App struct {
	Firebase  *firebase.App
	Messaging *messaging.Client
}

// ParseWebConfig decodes a Firebase web config
func ParseWebConfig(raw []byte) (*WebConfig, error) {
	var cfg WebConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid firebase config: %w", err)
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase config has no projectId")
	}
	return &cfg, nil
}

// InitializeApp creates the Firebase app and messaging client from a raw
// web config
func InitializeApp(ctx context.Context, raw []byte) (*App, error) {
	cfg, err := ParseWebConfig(raw)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
		DatabaseURL:   cfg.DatabaseURL,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &App{Firebase: app, Messaging: client}, nil
}

// DecodeMessage decodes an FCM message as delivered to the push ingress
func DecodeMessage(body []byte) (*messaging.Message, error) {
	var msg messaging.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("invalid push message: %w", err)
	}
	if len(msg.Data) == 0 {
		return nil, errors.New("push message has no data")
	}
	return &msg, nil
}
