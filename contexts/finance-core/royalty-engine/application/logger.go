package application

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "royalties/finance-core/royalty-engine"

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// Tracer returns the engine tracer from the global provider. It is a no-op
// until telemetry is initialised.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
