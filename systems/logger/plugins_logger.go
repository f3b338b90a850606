package logger

import (
	"github.com/go-home-io/klyqa/plugins/common"
)

// Logger which decorates every entry with the owner fields.
type pluginLogger struct {
	systemLogger common.ILoggerProvider
	ownerFields  []string
}

// ConstructPluginLogger has data required for a new plugin logger.
// Fields are optional key/value pairs added after system and provider.
type ConstructPluginLogger struct {
	SystemLogger common.ILoggerProvider
	System       string
	Provider     string
	Fields       []string
}

// NewPluginLogger constructs a new logger, which adds system and provider
// names to every entry of the system logger.
func NewPluginLogger(ctor *ConstructPluginLogger) common.ILoggerProvider {
	owner := []string{common.LogSystemToken, ctor.System}
	if ctor.Provider != "" {
		owner = append(owner, common.LogProviderToken, ctor.Provider)
	}

	if 0 == len(ctor.Fields)%2 {
		owner = append(owner, ctor.Fields...)
	}

	return &pluginLogger{
		systemLogger: ctor.SystemLogger,
		ownerFields:  owner,
	}
}

// Debug sends debug level message.
func (l *pluginLogger) Debug(msg string, fields ...string) {
	l.systemLogger.Debug(msg, l.decorate(fields)...)
}

// Info sends info level message.
func (l *pluginLogger) Info(msg string, fields ...string) {
	l.systemLogger.Info(msg, l.decorate(fields)...)
}

// Warn sends warning level message.
func (l *pluginLogger) Warn(msg string, fields ...string) {
	l.systemLogger.Warn(msg, l.decorate(fields)...)
}

// Error sends error level message.
func (l *pluginLogger) Error(msg string, err error, fields ...string) {
	l.systemLogger.Error(msg, err, l.decorate(fields)...)
}

// Fatal sends fatal level message and exits.
func (l *pluginLogger) Fatal(msg string, err error, fields ...string) {
	l.systemLogger.Fatal(msg, err, l.decorate(fields)...)
}

// Entry fields go first, so the owner fields win on duplicated keys.
// Caller's slice is never modified.
func (l *pluginLogger) decorate(fields []string) []string {
	result := make([]string, 0, len(fields)+len(l.ownerFields))
	result = append(result, fields...)
	return append(result, l.ownerFields...)
}
