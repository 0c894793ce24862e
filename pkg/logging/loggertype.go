package logging

import (
	"fmt"
	"strings"
)

// LoggerType is a type of logger output.
// Possible types:
//   - LoggerText: zap console encoder.
//   - LoggerJSON: zap JSON encoder.
//   - LoggerPretty: console encoder with colored levels.
type LoggerType int

const (
	LoggerText LoggerType = iota
	LoggerJSON
	LoggerPretty
)

var loggerTypeNames = [...]string{
	LoggerText:   "text",
	LoggerJSON:   "json",
	LoggerPretty: "pretty",
}

func (t LoggerType) String() string {
	if t >= 0 && int(t) < len(loggerTypeNames) {
		return loggerTypeNames[t]
	}
	return fmt.Sprintf("LoggerType(%d)", int(t))
}

func (t LoggerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *LoggerType) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, n := range loggerTypeNames {
		if n == s {
			*t = LoggerType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown logger type %q", string(text))
}
