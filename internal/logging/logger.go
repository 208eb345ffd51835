package logging

import (
	"context"

	"go.uber.org/zap"
)

// NewLogger returns a new zap.SugaredLogger. Debug switches to the
// development config.
func NewLogger(debug bool) *zap.SugaredLogger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.OutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger.Named("ropipeline").Sugar()
}

type loggerKey struct{}

// WithLogger returns a copy of parent context in which the
// value associated with logger key is the supplied logger.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger in the context, or a no-op logger when
// there is none.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return logger
	}
	return zap.NewNop().Sugar()
}

// WithRunID tags the context logger with a run id and stores it back in ctx,
// so every stage of the run logs under the same id.
func WithRunID(ctx context.Context, runID string) (context.Context, *zap.SugaredLogger) {
	logger := FromContext(ctx).With("run_id", runID)
	return WithLogger(ctx, logger), logger
}
