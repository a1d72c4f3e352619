package cloudmessaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"firebase.google.com/go/messaging"
)

// Sender is the part of *messaging.Client used by the service.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go
type Service interface {
	SendMessage(ctx context.Context, title, body, pushToken string, data map[string]interface{}) (*string, error)
}

type service struct {
	sender         Sender
	androidChannel string
}

func NewCloudMessagingService(sender Sender, androidChannel string) (Service, error) {
	if sender == nil {
		return nil, errors.New("[cloud_messaging] invalid firebase messaging client")
	}
	if androidChannel == "" {
		return nil, errors.New("[cloud_messaging] invalid firebase android channel")
	}

	return &service{sender: sender, androidChannel: androidChannel}, nil
}

func (s *service) SendMessage(ctx context.Context, title, body, pushToken string, data map[string]interface{}) (*string, error) {
	if pushToken == "" {
		return nil, errors.New("invalid push token")
	}

	response, err := s.sender.Send(ctx, &messaging.Message{
		// iOS
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound:      "default",
					CustomData: data,
				},
			},
		},

		// Android
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Title:     title,
				Body:      body,
				ChannelID: s.androidChannel,
				Sound:     "default",
			},
			Data: androidData(data),
		},
		Token: pushToken,
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// androidData flattens data into the string map FCM expects for Android.
func androidData(data map[string]interface{}) map[string]string {
	out := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			out[key] = v
		case int:
			out[key] = strconv.Itoa(v)
		case int64:
			out[key] = strconv.FormatInt(v, 10)
		case uint64:
			out[key] = strconv.FormatUint(v, 10)
		case bool:
			out[key] = strconv.FormatBool(v)
		case fmt.Stringer:
			out[key] = v.String()
		}
	}
	return out
}
