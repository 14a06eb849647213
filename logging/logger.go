package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a zap logger for the given environment. Unknown environments
// get the production config.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		return zap.NewExample(), nil
	case "development", "dev":
		return zap.NewDevelopment()
	case "production", "prod", "":
		return zap.NewProduction()
	default:
		l, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("failed to build production logger: %w", err)
		}
		l.Sugar().Warnw("unknown environment, using production logger", "env", env)
		return l, nil
	}
}
