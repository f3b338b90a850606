package providers

import (
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/prometheus/client_golang/prometheus"
)

// ISettingsProvider defines settings loader provider logic.
type ISettingsProvider interface {
	SystemLogger() common.ILoggerProvider
	PluginLogger(system string, provider string) common.ILoggerProvider
	Cron() ICronProvider
	Validator() IValidatorProvider
	FanOut() IInternalFanOutProvider
	EventBus() IEventBusProvider
	Storage() IStorageProvider
	Metrics() *prometheus.Registry
	CoreSettings() *CoreSettings
	KlyqaSettings() *KlyqaSettings
	MQTTSettings() *MQTTSettings
}

// CoreSettings has configured data for the host.
type CoreSettings struct {
	Port        int    `yaml:"port" validate:"required,port" default:"8000"`
	StoragePath string `yaml:"storage"`
	LogLevel    string `yaml:"logLevel" default:"info"`
}

// KlyqaSettings has configured data for the Klyqa account.
type KlyqaSettings struct {
	CloudURL       string            `yaml:"cloudUrl" validate:"required,url" default:"https://app-api.prod.qconnex.io"`
	Username       string            `yaml:"username" validate:"required"`
	Password       string            `yaml:"password" validate:"required"`
	DisablePolling bool              `yaml:"disablePolling"`
	SyncRooms      bool              `yaml:"syncRooms"`
	SettingsTTL    int               `yaml:"settingsTTL" validate:"gte=0" default:"60"`
	RefreshPeriod  int               `yaml:"refreshPeriod" validate:"gte=0" default:"300"`
	Include        []string          `yaml:"include" validate:"globs"`
	Exclude        []string          `yaml:"exclude" validate:"globs"`
	ProductURLs    map[string]string `yaml:"productUrls"`
	ConfigEntryID  string            `yaml:"configEntryId"`
	RequestTimeout int               `yaml:"requestTimeout" validate:"gte=0" default:"30"`
}

// MQTTSettings has configured data for the local device bridge.
type MQTTSettings struct {
	Broker      string `yaml:"broker" validate:"required,broker" default:"tcp://127.0.0.1:1883"`
	ClientID    string `yaml:"clientId" default:"go-home-klyqa"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topicPrefix" validate:"required" default:"klyqa"`
	Payload     string `yaml:"payload"`
}
