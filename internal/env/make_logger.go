package env

import (
	zap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func MakeLogger(level zapcore.Level) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(level)
	logConfig.Encoding = "json"

	return logConfig.Build()
}

// LogLevel picks the level used by the CLI: warnings only, unless debugging.
func LogLevel(debug bool) zapcore.Level {
	if debug {
		return zap.DebugLevel
	}

	return zap.WarnLevel
}
