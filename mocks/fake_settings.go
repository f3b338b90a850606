//+build !release

package mocks

import (
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSettings struct {
	logger  common.ILoggerProvider
	cron    providers.ICronProvider
	fanOut  providers.IInternalFanOutProvider
	bus     providers.IEventBusProvider
	storage providers.IStorageProvider
	metrics *prometheus.Registry
	core    *providers.CoreSettings
	klyqa   *providers.KlyqaSettings
	mqtt    *providers.MQTTSettings
}

func (f *fakeSettings) SystemLogger() common.ILoggerProvider {
	return f.logger
}

func (f *fakeSettings) PluginLogger(string, string) common.ILoggerProvider {
	return f.logger
}

func (f *fakeSettings) Cron() providers.ICronProvider {
	return f.cron
}

func (f *fakeSettings) Validator() providers.IValidatorProvider {
	return FakeNewValidator(true)
}

func (f *fakeSettings) FanOut() providers.IInternalFanOutProvider {
	return f.fanOut
}

func (f *fakeSettings) EventBus() providers.IEventBusProvider {
	return f.bus
}

func (f *fakeSettings) Storage() providers.IStorageProvider {
	return f.storage
}

func (f *fakeSettings) Metrics() *prometheus.Registry {
	return f.metrics
}

func (f *fakeSettings) CoreSettings() *providers.CoreSettings {
	return f.core
}

func (f *fakeSettings) KlyqaSettings() *providers.KlyqaSettings {
	return f.klyqa
}

func (f *fakeSettings) MQTTSettings() *providers.MQTTSettings {
	return f.mqtt
}

// FakeNewSettings creates a new fake settings provider.
func FakeNewSettings(logCallback func(string)) providers.ISettingsProvider {
	return &fakeSettings{
		logger:  FakeNewLogger(logCallback),
		cron:    FakeNewCron(),
		fanOut:  FakeNewFanOut(),
		bus:     FakeNewEventBus(),
		storage: FakeNewStorage(nil),
		metrics: prometheus.NewRegistry(),
		core: &providers.CoreSettings{
			Port:     9999,
			LogLevel: "debug",
		},
		klyqa: &providers.KlyqaSettings{
			CloudURL:    "http://127.0.0.1",
			Username:    "test",
			Password:    "test",
			SettingsTTL: 60,
		},
		mqtt: &providers.MQTTSettings{
			Broker:      "tcp://127.0.0.1:1883",
			TopicPrefix: "klyqa",
		},
	}
}
