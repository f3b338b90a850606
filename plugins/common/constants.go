package common

const (
	// LogSystemToken describes system log entry.
	LogSystemToken = "system"
	// LogDeviceTypeToken describes device type log entry.
	LogDeviceTypeToken = "device_type"
	// LogDeviceNameToken describes device name log entry.
	LogDeviceNameToken = "device_name"
	// LogDeviceCommandToken describes device command log entry.
	LogDeviceCommandToken = "device_cmd"
	// LogDevicePropertyToken describes device property log entry.
	LogDevicePropertyToken = "device_prop"
	// LogDeviceUIDToken describes vendor device unit ID log entry.
	LogDeviceUIDToken = "device_uid"
	// LogEntityIDToken describes entity ID log entry.
	LogEntityIDToken = "entity_id"
	// LogEventToken describes bus event log entry.
	LogEventToken = "event"
	// LogURLToken describes URL log entry.
	LogURLToken = "url"
	// LogTopicToken describes MQTT topic log entry.
	LogTopicToken = "topic"
)

const (
	// LogErrorToken describes error log entry.
	LogErrorToken = "error"
	// LogFileToken describes file log entry.
	LogFileToken = "file"
	// LogNameToken describes name log entry.
	LogNameToken = "name"
	// LogProviderToken describes provider log entry.
	LogProviderToken = "provider"
	// LogFieldToken describes field log entry.
	LogFieldToken = "field"
	// LogSecretToken describes secret name log entry.
	LogSecretToken = "secret"
	// LogIDToken describes subscriber or listener ID log entry.
	LogIDToken = "id"
)
