package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-home-io/klyqa/klyqa"
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/server"
	"github.com/go-home-io/klyqa/settings"
	"github.com/go-home-io/klyqa/systems/device"
	"github.com/go-home-io/klyqa/systems/logger"
	"github.com/go-home-io/klyqa/systems/registry"
	"github.com/go-home-io/klyqa/vacuum"
	"github.com/jessevdk/go-flags"
)

const (
	// Logger system representation.
	logSystem = "main"

	stopTimeout = 5 * time.Second
)

func main() {
	options := &settings.StartUpOptions{}
	_, err := flags.Parse(options)
	if err != nil {
		os.Exit(1)
	}

	s, err := settings.Load(options)
	if err != nil {
		logger.NewConsoleLogger(options.LogLevel).Fatal("Failed to load settings", err,
			common.LogSystemToken, logSystem, common.LogFileToken, options.Config)
		return
	}

	log := s.SystemLogger()
	log.Info("Starting go-home klyqa", common.LogSystemToken, logSystem)

	transport, err := klyqa.NewMQTTTransport(&klyqa.ConstructMQTTTransport{
		Logger:   s.PluginLogger("transport", "mqtt"),
		Settings: s.MQTTSettings(),
	})
	if err != nil {
		log.Fatal("Failed to create transport", err, common.LogSystemToken, logSystem)
		return
	}

	account, err := klyqa.NewAccount(&klyqa.ConstructAccount{
		Logger:    s.PluginLogger("account", vacuum.Domain),
		Transport: transport,
		Cloud: klyqa.NewCloud(&klyqa.ConstructCloud{
			Logger:   s.PluginLogger("cloud", vacuum.Domain),
			URL:      s.KlyqaSettings().CloudURL,
			Username: s.KlyqaSettings().Username,
			Password: s.KlyqaSettings().Password,
			Timeout:  time.Duration(s.KlyqaSettings().RequestTimeout) * time.Second,
		}),
		Bus:      s.EventBus(),
		Cron:     s.Cron(),
		Settings: s.KlyqaSettings(),
	})
	if err != nil {
		log.Fatal("Failed to create account", err, common.LogSystemToken, logSystem)
		return
	}

	platform := device.NewPlatform(&device.ConstructPlatform{
		Logger:    s.PluginLogger("platform", "go-home"),
		Cron:      s.Cron(),
		Validator: s.Validator(),
		FanOut:    s.FanOut(),
	})

	registryCtor := &registry.ConstructRegistry{
		Logger:  s.PluginLogger("registry", "go-home"),
		Storage: s.Storage(),
	}
	areas := registry.NewAreaRegistry(registryCtor)

	registrar := vacuum.NewRegistrar(&vacuum.ConstructRegistrar{
		Logger:   s.PluginLogger("vacuum", vacuum.Domain),
		Account:  account,
		Parser:   klyqa.NewParser(),
		Bus:      s.EventBus(),
		Platform: platform,
		Entities: registry.NewEntityRegistry(registryCtor),
		Devices:  registry.NewDeviceRegistry(registryCtor, areas),
		Areas:    areas,
		Settings: s.KlyqaSettings(),
		Metrics:  s.Metrics(),
	})

	srv := server.NewServer(&server.ConstructServer{
		Logger:   s.PluginLogger("server", "go-home"),
		Platform: platform,
		FanOut:   s.FanOut(),
		Metrics:  s.Metrics(),
		Port:     s.CoreSettings().Port,
	})

	if err := srv.Start(); err != nil {
		log.Fatal("Failed to start server", err, common.LogSystemToken, logSystem)
		return
	}

	if err := account.Start(); err != nil {
		log.Fatal("Failed to start account", err, common.LogSystemToken, logSystem)
		return
	}

	if err := registrar.Setup(context.Background()); err != nil {
		log.Error("Failed to load account settings", err, common.LogSystemToken, logSystem)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info("Received stop command, exiting", common.LogSystemToken, logSystem)
	s.EventBus().Fire(providers.EventHomeStop, nil)
	registrar.Unload()
	platform.Unload()
	account.Shutdown()
	s.Cron().Stop()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("Failed to stop server", err, common.LogSystemToken, logSystem)
	}

	if err := s.Storage().Close(); err != nil {
		log.Error("Failed to close storage", err, common.LogSystemToken, logSystem)
	}
}
