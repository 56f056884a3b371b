// Package logger builds the application zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a development logger for env "dev" and a production (JSON)
// logger for env "prod".
func New(env string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	switch env {
	case "", "dev":
		l, err = zap.NewDevelopment()
	case "prod":
		l, err = zap.NewProduction()
	default:
		return nil, fmt.Errorf("unknown log env %q", env)
	}
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return l, nil
}
