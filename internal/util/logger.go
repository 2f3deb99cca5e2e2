package util

import "go.uber.org/zap"

// NewLogger returns a production logger when env is "production" and a development logger
// otherwise.
func NewLogger(env string) *zap.SugaredLogger {
	if env == "production" {
		return zap.Must(zap.NewProduction()).Sugar()
	}

	return zap.Must(zap.NewDevelopment()).Sugar()
}

// NewNopLogger is for unit tests.
func NewNopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
