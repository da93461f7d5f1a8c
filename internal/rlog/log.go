// Package rlog builds the *zap.Logger used for compiler/evaluator
// diagnostics (compilation errors, lazy-build cache events) across
// cmd/fieldrules and cmd/fieldrules-conformance. Violations themselves are
// data returned from Validate, never logged here — rlog is strictly for
// operational events, the same separation dalemusser-waffle and
// open-policy-agent-gatekeeper keep between their zap loggers and their
// actual request/decision output.
package rlog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger at the given level ("debug", "info", "warn",
// "error") in the given format ("console" or "json").
func New(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("rlog: invalid level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("rlog: building logger: %w", err)
	}
	return logger, nil
}
