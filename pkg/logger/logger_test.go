package logger_test

import (
	"errors"
	"testing"

	"solana-wallet-monitor/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
		expect func(*testing.T, logger.Logger, error)
	}{
		{
			name:   "should return logger",
			appEnv: "development",
			expect: func(t *testing.T, l logger.Logger, err error) {
				assert.NotNil(t, l)
				assert.Nil(t, err)
			},
		},
		{
			name:   "should return env error",
			appEnv: "",
			expect: func(t *testing.T, l logger.Logger, err error) {
				assert.NotNil(t, err)
				assert.Equal(t, err, errors.New("[logger] invalid app env"))
				assert.Nil(t, l)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := logger.NewLogger(tc.appEnv, "monitor")
			tc.expect(t, svc, err)
		})
	}
}

func TestSetupZapLogger(t *testing.T) {
	tests := []struct {
		name    string
		appEnv  string
		wantErr bool
	}{
		{name: "development", appEnv: "development"},
		{name: "test", appEnv: "test"},
		{name: "unknown env", appEnv: "staging", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := logger.NewLogger(tc.appEnv, "monitor")
			assert.NoError(t, err)

			zl, err := l.SetupZapLogger()
			if tc.wantErr {
				assert.EqualError(t, err, "[logger] incorrect app env")
				assert.Nil(t, zl)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, zl)
		})
	}
}
