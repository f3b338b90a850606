package settings

import (
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/systems/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// SystemLogger returns default system logger.
func (s *settingsProvider) SystemLogger() common.ILoggerProvider {
	return s.logger
}

// PluginLogger returns logger decorated with system and provider names.
func (s *settingsProvider) PluginLogger(system string, provider string) common.ILoggerProvider {
	return logger.NewPluginLogger(&logger.ConstructPluginLogger{
		SystemLogger: s.logger,
		System:       system,
		Provider:     provider,
	})
}

// Cron returns system's cron provider.
func (s *settingsProvider) Cron() providers.ICronProvider {
	return s.cron
}

// Validator returns yaml validator provider.
func (s *settingsProvider) Validator() providers.IValidatorProvider {
	return s.validator
}

// FanOut returns fan out channel.
func (s *settingsProvider) FanOut() providers.IInternalFanOutProvider {
	return s.fanOut
}

// EventBus returns process-wide event bus.
func (s *settingsProvider) EventBus() providers.IEventBusProvider {
	return s.bus
}

// Storage returns a storage provider.
func (s *settingsProvider) Storage() providers.IStorageProvider {
	return s.storage
}

// Metrics returns metrics registry.
func (s *settingsProvider) Metrics() *prometheus.Registry {
	return s.metrics
}

// CoreSettings returns host settings.
func (s *settingsProvider) CoreSettings() *providers.CoreSettings {
	return s.core
}

// KlyqaSettings returns Klyqa account settings.
func (s *settingsProvider) KlyqaSettings() *providers.KlyqaSettings {
	return s.klyqa
}

// MQTTSettings returns local bridge settings.
func (s *settingsProvider) MQTTSettings() *providers.MQTTSettings {
	return s.mqtt
}
