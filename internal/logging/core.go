// internal/logging/core.go
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
)

// newCore builds the zapcore.Core backing the Logger: a redacting, sampled
// stdout encoder. Trace-id correlation comes from ContextFields on every
// call, not from a bridged log exporter; span timing for an operation is
// reported by the OTel tracer wired per-package (see internal/vectorstore's
// span-per-method pattern), which this logger does not duplicate.
func newCore(cfg *Config) (zapcore.Core, error) {
	if !cfg.Output.Stdout {
		return nil, fmt.Errorf("at least one output must be enabled and available")
	}

	baseEncoder := newEncoder(cfg.Format)
	encoder, err := NewRedactingEncoder(baseEncoder, cfg.Redaction)
	if err != nil {
		return nil, fmt.Errorf("failed to create redacting encoder: %w", err)
	}
	writer := zapcore.AddSync(os.Stdout)
	core := zapcore.NewCore(encoder, writer, cfg.Level)

	return newSampledCore(core, cfg.Sampling), nil
}
