package cloudmessaging_test

import (
	"context"
	"errors"
	"testing"

	cloudmessaging "solana-wallet-monitor/pkg/firebase/cloud-messaging"

	"firebase.google.com/go/messaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []*messaging.Message
	err      error
}

func (r *recordingSender) Send(_ context.Context, message *messaging.Message) (string, error) {
	r.messages = append(r.messages, message)
	if r.err != nil {
		return "", r.err
	}
	return "projects/solana-wallet-monitor/messages/1", nil
}

func TestNewCloudMessagingService(t *testing.T) {
	tests := []struct {
		name           string
		sender         cloudmessaging.Sender
		androidChannel string
		expect         func(t *testing.T, s cloudmessaging.Service, err error)
	}{
		{
			name:           "should return service",
			sender:         &messaging.Client{},
			androidChannel: "channel",
			expect: func(t *testing.T, s cloudmessaging.Service, err error) {
				assert.NotNil(t, s)
				assert.Nil(t, err)
			},
		},
		{
			name:           "should return sender error",
			androidChannel: "channel",
			expect: func(t *testing.T, s cloudmessaging.Service, err error) {
				assert.Nil(t, s)
				assert.EqualError(t, err, "[cloud_messaging] invalid firebase messaging client")
			},
		},
		{
			name:   "should return channel error",
			sender: &recordingSender{},
			expect: func(t *testing.T, s cloudmessaging.Service, err error) {
				assert.Nil(t, s)
				assert.EqualError(t, err, "[cloud_messaging] invalid firebase android channel")
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cloudmessaging.NewCloudMessagingService(tc.sender, tc.androidChannel)
			tc.expect(t, got, err)
		})
	}
}

func TestSendMessage(t *testing.T) {
	sender := &recordingSender{}
	svc, err := cloudmessaging.NewCloudMessagingService(sender, "transactions")
	require.NoError(t, err)

	data := map[string]interface{}{
		"type":   "transaction-alert",
		"slot":   uint64(5208469),
		"unique": 2,
		"failed": false,
		"fee":    decimal.New(5, -6),
	}

	response, err := svc.SendMessage(context.Background(), "Transaction Alert", "New SOL_TRANSFER", "token", data)
	require.NoError(t, err)
	assert.Equal(t, "projects/solana-wallet-monitor/messages/1", *response)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, "token", msg.Token)
	assert.Equal(t, "transactions", msg.Android.Notification.ChannelID)
	assert.Equal(t, "Transaction Alert", msg.APNS.Payload.Aps.Alert.Title)
	assert.Equal(t, map[string]string{
		"type":   "transaction-alert",
		"slot":   "5208469",
		"unique": "2",
		"failed": "false",
		"fee":    "0.000005",
	}, msg.Android.Data)
}

func TestSendMessageErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("registration-token-not-registered")}
	svc, err := cloudmessaging.NewCloudMessagingService(sender, "transactions")
	require.NoError(t, err)

	response, err := svc.SendMessage(context.Background(), "title", "body", "token", nil)
	assert.Nil(t, response)
	assert.EqualError(t, err, "registration-token-not-registered")

	response, err = svc.SendMessage(context.Background(), "title", "body", "", nil)
	assert.Nil(t, response)
	assert.EqualError(t, err, "invalid push token")
}
