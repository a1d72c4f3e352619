package firebase_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"solana-wallet-monitor/pkg/firebase"

	"firebase.google.com/go/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name            string
		credentialsPath string
		expect          func(t *testing.T, c firebase.Client, err error)
	}{
		{
			name:            "should return client",
			credentialsPath: "./path.json",
			expect: func(t *testing.T, c firebase.Client, err error) {
				assert.NotNil(t, c)
				assert.Nil(t, err)
			},
		},
		{
			name:            "should return invalid credentials path",
			credentialsPath: "",
			expect: func(t *testing.T, c firebase.Client, err error) {
				assert.Nil(t, c)
				assert.EqualError(t, err, "[firebase] invalid credentials path")
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := firebase.NewClient(tc.credentialsPath)
			tc.expect(t, got, err)
		})
	}
}

func TestCreateCloudMessagingClient(t *testing.T) {
	cred, err := json.Marshal(map[string]string{
		"type":                        "service_account",
		"project_id":                  "solana-wallet-monitor",
		"private_key_id":              "example",
		"private_key":                 "example",
		"client_email":                "monitor@solana-wallet-monitor.iam.gserviceaccount.com",
		"client_id":                   "example",
		"auth_uri":                    "https://accounts.google.com/o/oauth2/auth",
		"token_uri":                   "https://oauth2.googleapis.com/token",
		"auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
		"client_x509_cert_url":        "example",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cred.json")
	require.NoError(t, os.WriteFile(path, cred, 0o600))

	tests := []struct {
		name            string
		credentialsPath string
		expect          func(t *testing.T, mc *messaging.Client, err error)
	}{
		{
			name:            "should return cloud messaging client",
			credentialsPath: path,
			expect: func(t *testing.T, mc *messaging.Client, err error) {
				assert.NotNil(t, mc)
				assert.Nil(t, err)
			},
		},
		{
			name:            "should return missing file error",
			credentialsPath: filepath.Join(t.TempDir(), "missing.json"),
			expect: func(t *testing.T, mc *messaging.Client, err error) {
				assert.Nil(t, mc)
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := firebase.NewClient(tc.credentialsPath)
			require.NoError(t, err)

			got, err := c.CreateCloudMessagingClient(context.Background())
			tc.expect(t, got, err)
		})
	}
}
