package logger

import (
	"errors"

	"go.uber.org/zap"
)

const logFile = "monitor.log"

//go:generate mockgen -source=logger.go -destination=mocks/logger_mock.go
type Logger interface {
	SetupZapLogger() (*zap.SugaredLogger, error)
}

type logger struct {
	appEnv string
	name   string
}

func NewLogger(appEnv, name string) (Logger, error) {
	if appEnv == "" {
		return nil, errors.New("[logger] invalid app env")
	}

	return &logger{appEnv: appEnv, name: name}, nil
}

// SetupZapLogger builds the sugared logger for the configured environment.
// The "test" environment discards everything.
func (l *logger) SetupZapLogger() (*zap.SugaredLogger, error) {
	loggerConfig := NewLoggerConfig(logFile)

	var (
		base *zap.Logger
		err  error
	)

	switch l.appEnv {
	case "production":
		base, err = loggerConfig.GetProductionConfig().Config.Build()
	case "development":
		base, err = loggerConfig.GetDevelopmentConfig().Config.Build()
	case "test":
		base = zap.NewNop()
	default:
		return nil, errors.New("[logger] incorrect app env")
	}
	if err != nil {
		return nil, err
	}

	if l.name != "" {
		base = base.Named(l.name)
	}

	return base.Sugar(), nil
}
