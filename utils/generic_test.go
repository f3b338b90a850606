package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Tests that we're returning current time.
func TestTimeNow(t *testing.T) {
	assert.InDelta(t, time.Now().UTC().Unix(), TimeNow(), 1)
}

// Tests devices name normalization.
func TestNormalizeDeviceName(t *testing.T) {
	data := map[string]string{
		"device 1": "device_1",
		"device-2": "device_2",
		"device.3": "device_3",
		"device%4": "device_4",
		"девайс$5": "девайс_5",
	}

	for k, v := range data {
		assert.Equal(t, v, NormalizeDeviceName(k), k)
	}
}

// Tests entity ID construction.
func TestEntityID(t *testing.T) {
	assert.Equal(t, "vacuum.a1b2c3", EntityID("vacuum", "a1b2c3"))
	assert.Equal(t, "vacuum.living_room", EntityID("vacuum", "Living Room"))
}
