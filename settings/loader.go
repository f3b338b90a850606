// Package settings is responsible for parsing yaml-based configuration.
package settings

import (
	"io/ioutil"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/systems/bus"
	"github.com/go-home-io/klyqa/systems/fanout"
	"github.com/go-home-io/klyqa/systems/logger"
	"github.com/go-home-io/klyqa/systems/secret"
	"github.com/go-home-io/klyqa/systems/storage"
	"github.com/go-home-io/klyqa/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/yaml.v2"
)

const (
	// Logger system.
	logSystem = "settings"
)

// StartUpOptions defines arguments allowed by the system.
type StartUpOptions struct {
	Config   string `short:"c" long:"config" description:"Config file location." default:"go-home.yaml"`
	LogLevel string `short:"l" long:"log-level" description:"Overrides configured log level."`
	Secrets  string `short:"s" long:"secrets" description:"Secrets file location."`
}

// Config file layout.
type configFile struct {
	Core  *providers.CoreSettings  `yaml:"core"`
	Klyqa *providers.KlyqaSettings `yaml:"klyqa"`
	MQTT  *providers.MQTTSettings  `yaml:"mqtt"`
}

// System settings.
type settingsProvider struct {
	logger    common.ILoggerProvider
	cron      providers.ICronProvider
	validator providers.IValidatorProvider
	fanOut    providers.IInternalFanOutProvider
	bus       providers.IEventBusProvider
	storage   providers.IStorageProvider
	metrics   *prometheus.Registry

	core  *providers.CoreSettings
	klyqa *providers.KlyqaSettings
	mqtt  *providers.MQTTSettings
}

// Load reads config file and constructs system providers.
func Load(options *StartUpOptions) (providers.ISettingsProvider, error) {
	data, err := ioutil.ReadFile(options.Config)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	return load(options, data)
}

// Parses config data and constructs system providers.
func load(options *StartUpOptions, data []byte) (*settingsProvider, error) {
	s := &settingsProvider{
		logger: logger.NewConsoleLogger(options.LogLevel),
	}
	s.validator = utils.NewValidator(s.PluginLogger("validator", "go-home"))

	secrets, err := secret.NewSecretProvider(&secret.ConstructSecret{
		Logger:   s.PluginLogger("secret", "fs"),
		Location: options.Secrets,
	})
	if err != nil {
		return nil, errors.Wrap(err, "load secrets")
	}

	cfg, err := s.parse(data, secrets)
	if err != nil {
		return nil, err
	}

	level := options.LogLevel
	if "" == level {
		level = cfg.Core.LogLevel
	}
	s.logger = logger.NewConsoleLogger(level)
	s.validator.SetLogger(s.PluginLogger("validator", "go-home"))

	s.core = cfg.Core
	s.klyqa = cfg.Klyqa
	s.mqtt = cfg.MQTT

	if "" == s.klyqa.ConfigEntryID {
		s.klyqa.ConfigEntryID = configEntryID(s.klyqa)
		s.logger.Debug("Generated config entry ID", common.LogSystemToken, logSystem,
			common.LogNameToken, s.klyqa.ConfigEntryID)
	}

	if err := s.loadStorage(); err != nil {
		return nil, err
	}

	s.cron = utils.NewCron()
	s.fanOut = fanout.NewFanOut(s.PluginLogger("fan_out", "go-home"))
	s.bus = bus.NewEventBus(s.PluginLogger("event_bus", "go-home"))
	s.metrics = prometheus.NewRegistry()
	s.metrics.MustRegister(collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return s, nil
}

// Applies templates, unmarshals and validates config sections.
func (s *settingsProvider) parse(data []byte, secrets providers.ISecretProvider) (*configFile, error) {
	data, err := newTemplateProvider(&constructTemplate{Logger: s.logger, Secrets: secrets}).Process(data)
	if err != nil {
		return nil, err
	}

	cfg := &configFile{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if nil == cfg.Core {
		s.logger.Warn("Core settings are not defined, using the default ones",
			common.LogSystemToken, logSystem)
		cfg.Core = &providers.CoreSettings{}
	}

	if nil == cfg.Klyqa {
		return nil, errors.New("klyqa settings are not defined")
	}

	if nil == cfg.MQTT {
		s.logger.Warn("MQTT settings are not defined, using the default ones",
			common.LogSystemToken, logSystem)
		cfg.MQTT = &providers.MQTTSettings{}
	}

	for name, v := range map[string]interface{}{"core": cfg.Core, "klyqa": cfg.Klyqa, "mqtt": cfg.MQTT} {
		if !s.validator.Validate(v) {
			return nil, errors.Wrap(&utils.ErrInvalidConfig{}, name)
		}
	}

	return cfg, nil
}

// Opens registries storage.
func (s *settingsProvider) loadStorage() error {
	if "" == s.core.StoragePath {
		s.logger.Warn("Storage path is not defined, registries won't be persisted",
			common.LogSystemToken, logSystem)
		s.storage = storage.NewEmptyStorageProvider()
		return nil
	}

	var err error
	s.storage, err = storage.NewStorageProvider(&storage.ConstructStorage{
		Logger: s.PluginLogger("storage", "sqlite"),
		Path:   s.core.StoragePath,
	})

	return err
}

// Config entry ID is stable for the same account.
func configEntryID(settings *providers.KlyqaSettings) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(settings.CloudURL+"/"+settings.Username)).String()
}
