package utils

import (
	"net/url"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/gobwas/glob"
	"gopkg.in/go-playground/validator.v9"
)

// Validator implementation.
type validatorProvider struct {
	sync.Mutex
	validator *validator.Validate
	logger    common.ILoggerProvider
}

// NewValidator constructs a new validator.
func NewValidator(logger common.ILoggerProvider) providers.IValidatorProvider {
	val := &validatorProvider{
		logger: logger,
	}
	v := validator.New()
	loadNewValidator(v, logger, "port", port)
	loadNewValidator(v, logger, "globs", globs)
	loadNewValidator(v, logger, "broker", broker)

	val.validator = v
	return val
}

// SetLogger updates the logger.
// Since logger is loaded after first init, we need to re-assign it.
func (v *validatorProvider) SetLogger(logger common.ILoggerProvider) {
	v.logger = logger
}

// Validate sets default values and performs validation of a config object.
func (v *validatorProvider) Validate(object interface{}) bool {
	v.Lock()
	defer v.Unlock()

	err := defaults.Set(object)

	if err != nil {
		v.logger.Error("Failed to set default field values", err)
		return false
	}

	err = v.validator.Struct(object)
	if err != nil {
		if vErr, ok := err.(validator.ValidationErrors); ok {
			for _, e := range vErr {
				v.logger.Warn("Validation error", common.LogFieldToken, e.Field())
			}
		} else {
			v.logger.Error("Validation failed", err)
		}

		return false
	}
	return true
}

// Port type validation.
func port(fl validator.FieldLevel) bool {
	return isPort(fl.Field().Int())
}

// Every element of the string slice should be a valid glob.
func globs(fl validator.FieldLevel) bool {
	f := fl.Field()
	for ii := 0; ii < f.Len(); ii++ {
		if _, err := glob.Compile(f.Index(ii).String()); err != nil {
			return false
		}
	}

	return true
}

// MQTT broker address validation.
func broker(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}

	switch u.Scheme {
	case "tcp", "ssl", "tls", "ws", "wss", "mqtt", "mqtts":
		return true
	}

	return false
}

// Validates whether value could be used as a port.
func isPort(val int64) bool {
	return val > 0 && val <= 65535
}

// Attempt to register a new validator
func loadNewValidator(validator *validator.Validate, logger common.ILoggerProvider,
	name string, function validator.Func) {
	if err := validator.RegisterValidation(name, function); err != nil {
		logger.Error("Failed to register validator type", err, "type", name)
	}
}
