package logging

import "time"

// Config controls the router and its sinks.
type Config struct {
	EnabledSinks     []string
	BufferSize       int
	MinimumSeverity  Severity
	Fields           map[string]any
	JSON             JSONConfig
	DropWarnInterval time.Duration
}

// JSONConfig controls the newline-delimited JSON sink.
type JSONConfig struct {
	FilePath      string
	FlushInterval time.Duration
}

// DefaultConfig enables the console sink at info severity.
func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			FlushInterval: 2 * time.Second,
		},
	}
}

// ParseSeverity maps a severity name to its level. Unknown names fall back to
// info.
func ParseSeverity(name string) Severity {
	switch name {
	case "debug":
		return SeverityDebug
	case "warn", "warning":
		return SeverityWarn
	case "error":
		return SeverityError
	default:
		return SeverityInfo
	}
}

// HasSink reports whether the named sink is enabled.
func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}

// CloneFields copies the static fields map.
func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
