// Package firebasedb stores seller and buyer records in a Firebase Realtime
// Database laid out as sellers/{seller} and buyers/{phone}.
package firebasedb

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

// NewApp initializes the Admin SDK from a service account file. An empty
// credentialsFile falls back to Application Default Credentials.
func NewApp(ctx context.Context, credentialsFile, projectID, databaseURL string) (*firebase.App, error) {
	cfg := &firebase.Config{ProjectID: projectID, DatabaseURL: databaseURL}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	return app, nil
}
