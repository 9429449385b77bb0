package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// FirebaseStore keeps the tree in a Firebase Realtime Database.
type FirebaseStore struct {
	app    *firebase.App
	client *db.Client
}

// NewFirebaseStore creates a store backed by the database at databaseURL.
func NewFirebaseStore(ctx context.Context, serviceAccountKeyPath string, databaseURL string) (*FirebaseStore, error) {
	if serviceAccountKeyPath == "" {
		return nil, fmt.Errorf("firebase service account key path not set")
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("firebase database url not set")
	}

	// Load the service account key file
	opt := option.WithCredentialsFile(serviceAccountKeyPath)

	config := &firebase.Config{
		DatabaseURL: databaseURL,
	}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %v", err)
	}

	return &FirebaseStore{
		app:    app,
		client: client,
	}, nil
}

var jsonNull = []byte("null")

// Get reads the node at key. The database answers null for absent paths.
func (fs *FirebaseStore) Get(ctx context.Context, key string, dst any) error {
	if _, err := SplitKey(key); err != nil {
		return err
	}
	var raw json.RawMessage
	if err := fs.client.NewRef(key).Get(ctx, &raw); err != nil {
		return fmt.Errorf("error reading %s: %v", key, err)
	}
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("error decoding %s: %v", key, err)
	}
	return nil
}

func (fs *FirebaseStore) Put(ctx context.Context, key string, value any) error {
	if _, err := SplitKey(key); err != nil {
		return err
	}
	if err := fs.client.NewRef(key).Set(ctx, value); err != nil {
		return fmt.Errorf("error writing %s: %v", key, err)
	}
	return nil
}

func (fs *FirebaseStore) Delete(ctx context.Context, key string) error {
	if _, err := SplitKey(key); err != nil {
		return err
	}
	if err := fs.client.NewRef(key).Delete(ctx); err != nil {
		return fmt.Errorf("error deleting %s: %v", key, err)
	}
	return nil
}
