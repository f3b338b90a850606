package utils

import (
	"testing"

	"github.com/go-home-io/klyqa/mocks"
	"github.com/stretchr/testify/assert"
)

type testStruct struct {
	Port    int32    `validate:"port" default:"8000"`
	Include []string `validate:"globs"`
	Broker  string   `validate:"omitempty,broker"`
}

// Tests success validation.
func TestSuccessValidation(t *testing.T) {
	in := []*testStruct{
		{
			Port:    8080,
			Include: []string{"*"},
			Broker:  "tcp://127.0.0.1:1883",
		},
		{
			Port:    65535,
			Include: []string{"a1b2*", "[0-9]*"},
		},
		{
			Broker: "ssl://broker.local:8883",
		},
	}

	validator := NewValidator(mocks.FakeNewLogger(nil))
	for k, v := range in {
		assert.True(t, validator.Validate(v), "%d", k)
	}
}

// Tests that defaults are applied.
func TestDefaults(t *testing.T) {
	v := &testStruct{}
	assert.True(t, NewValidator(mocks.FakeNewLogger(nil)).Validate(v))
	assert.Equal(t, int32(8000), v.Port)
}

// Tests validation without pointer.
func TestNotPointer(t *testing.T) {
	validator := NewValidator(mocks.FakeNewLogger(nil))
	d := testStruct{
		Port: 8080,
	}

	assert.False(t, validator.Validate(d))
}

// Tests incorrect data.
func TestFailedValidation(t *testing.T) {
	in := []*testStruct{
		{
			Port: 100000,
		},
		{
			Include: []string{"[unclosed"},
		},
		{
			Broker: "http://127.0.0.1:1883",
		},
		{
			Broker: "tcp://",
		},
	}

	validator := NewValidator(mocks.FakeNewLogger(nil))
	for k, v := range in {
		assert.False(t, validator.Validate(v), "%d", k)
	}
}
