// Package logging configures the zap loggers of the tools and names the namespaces
// the engine and the loader log under.
package logging

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

const (
	EngineNamespace = "engine"
	LoaderNamespace = "loader"
	HostNamespace   = "host"
)

// SetupLogger builds a logger writing to stdout, replaces the zap globals with it and returns it.
func SetupLogger(p Parameters) (*zap.Logger, error) {
	logger, err := NewLogger(p, zapcore.Lock(os.Stdout))
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// NewLogger builds a logger writing to w.
func NewLogger(p Parameters, w zapcore.WriteSyncer) (*zap.Logger, error) {
	al := zap.NewAtomicLevelAt(p.Level)
	core := zapcore.NewCore(newEncoder(p.Type), w, al)
	if p.Filter != "" {
		rules, err := zapfilter.ParseRules(p.Filter)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse log filter")
		}
		core = zapfilter.NewFilteringCore(core, rules)
	}
	return zap.New(core), nil
}

func newEncoder(t LoggerType) zapcore.Encoder {
	switch t {
	case LoggerJSON:
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case LoggerPretty:
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	default:
		return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
}
