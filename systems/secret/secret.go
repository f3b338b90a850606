// Package secret contains file based secrets store.
package secret

import (
	"io/ioutil"
	"os"
	"sync"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	// Secrets logs system value.
	logSystem = "secret"
)

// ErrSecretNotFound defines unknown secret error.
type ErrSecretNotFound struct {
	Name string
}

// Error formats output.
func (e *ErrSecretNotFound) Error() string {
	return "secret " + e.Name + " is not found"
}

// File system secrets store.
// Secrets are kept in a flat yaml map.
type fsSecret struct {
	sync.Mutex
	location string
	logger   common.ILoggerProvider
	data     map[string]string
}

// ConstructSecret has data required for a new secrets provider.
type ConstructSecret struct {
	Logger   common.ILoggerProvider
	Location string
}

// NewSecretProvider constructs a new secrets store provider.
// Missing file is treated as an empty store.
func NewSecretProvider(ctor *ConstructSecret) (providers.ISecretProvider, error) {
	s := &fsSecret{
		location: ctor.Location,
		logger:   ctor.Logger,
		data:     make(map[string]string),
	}

	if "" == s.location {
		return s, nil
	}

	raw, err := ioutil.ReadFile(s.location)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Secrets file doesn't exist", common.LogSystemToken, logSystem,
				common.LogFileToken, s.location)
			return s, nil
		}

		return nil, errors.Wrap(err, "read secrets")
	}

	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, errors.Wrap(err, "unmarshal secrets")
	}

	if nil == s.data {
		s.data = make(map[string]string)
	}

	return s, nil
}

// Get returns secret value or an error if it wasn't found.
func (s *fsSecret) Get(name string) (string, error) {
	s.Lock()
	defer s.Unlock()

	s.logger.Debug("Requesting secret", common.LogSecretToken, name, common.LogSystemToken, logSystem)
	value, ok := s.data[name]
	if !ok {
		err := &ErrSecretNotFound{Name: name}
		s.logger.Error("Can't find requested secret", err, common.LogSecretToken, name,
			common.LogSystemToken, logSystem)
		return "", err
	}

	return value, nil
}

// Set saves a new secret or updates existing one.
func (s *fsSecret) Set(name string, data string) error {
	s.Lock()
	defer s.Unlock()

	s.logger.Debug("Setting a new secret", common.LogSecretToken, name, common.LogSystemToken, logSystem)
	s.data[name] = data

	if "" == s.location {
		return nil
	}

	raw, err := yaml.Marshal(s.data)
	if err != nil {
		return errors.Wrap(err, "marshal secrets")
	}

	if err := ioutil.WriteFile(s.location, raw, 0600); err != nil {
		s.logger.Error("Failed to add a new secret", err, common.LogSecretToken, name,
			common.LogSystemToken, logSystem)
		return errors.Wrap(err, "write secrets")
	}

	return nil
}
