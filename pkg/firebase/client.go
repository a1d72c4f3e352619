package firebase

import (
	"context"
	"errors"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

type Client interface {
	CreateCloudMessagingClient(ctx context.Context) (*messaging.Client, error)
}

type client struct {
	credentialsPath string
}

func NewClient(credentialsPath string) (Client, error) {
	if credentialsPath == "" {
		return nil, errors.New("[firebase] invalid credentials path")
	}

	return &client{credentialsPath: credentialsPath}, nil
}

func (c *client) CreateCloudMessagingClient(ctx context.Context) (*messaging.Client, error) {
	opts := []option.ClientOption{option.WithCredentialsFile(c.credentialsPath)}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}

	return app.Messaging(ctx)
}
