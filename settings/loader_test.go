package settings

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-home-io/klyqa/mocks"
	"github.com/go-home-io/klyqa/systems/secret"
	"github.com/go-home-io/klyqa/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const config = `
core:
  port: 8123
  logLevel: debug
klyqa:
  username: user@example.com
  password: '{{ env "KLYQA_TEST_PASSWORD" }}'
  syncRooms: true
  include:
    - "ab*"
  productUrls:
    "@klyqa.cleaner.vc1": http://example.com/vc1
mqtt:
  broker: tcp://10.0.0.2:1883
  topicPrefix: home/klyqa
  payload: jq(payload, '.data')
`

// Tests full config.
func TestLoad(t *testing.T) {
	os.Setenv("KLYQA_TEST_PASSWORD", "s3cr&t") // nolint: errcheck
	defer os.Unsetenv("KLYQA_TEST_PASSWORD")  // nolint: errcheck

	s, err := load(&StartUpOptions{}, []byte(config))
	require.NoError(t, err)

	assert.Equal(t, 8123, s.CoreSettings().Port)
	assert.Equal(t, "debug", s.CoreSettings().LogLevel)

	k := s.KlyqaSettings()
	assert.Equal(t, "user@example.com", k.Username)
	assert.Equal(t, "s3cr&t", k.Password)
	assert.Equal(t, "https://app-api.prod.qconnex.io", k.CloudURL)
	assert.True(t, k.SyncRooms)
	assert.False(t, k.DisablePolling)
	assert.Equal(t, 60, k.SettingsTTL)
	assert.Equal(t, 300, k.RefreshPeriod)
	assert.Equal(t, 30, k.RequestTimeout)
	assert.Equal(t, []string{"ab*"}, k.Include)
	assert.Equal(t, "http://example.com/vc1", k.ProductURLs["@klyqa.cleaner.vc1"])
	assert.Equal(t, configEntryID(k), k.ConfigEntryID)

	m := s.MQTTSettings()
	assert.Equal(t, "tcp://10.0.0.2:1883", m.Broker)
	assert.Equal(t, "home/klyqa", m.TopicPrefix)
	assert.Equal(t, "go-home-klyqa", m.ClientID)
	assert.Equal(t, "jq(payload, '.data')", m.Payload)

	assert.NotNil(t, s.SystemLogger())
	assert.NotNil(t, s.PluginLogger("vacuum", "klyqa"))
	assert.NotNil(t, s.Cron())
	assert.NotNil(t, s.Validator())
	assert.NotNil(t, s.FanOut())
	assert.NotNil(t, s.EventBus())
	assert.NotNil(t, s.Storage())

	families, err := s.Metrics().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

// Tests default sections.
func TestLoadDefaults(t *testing.T) {
	s, err := load(&StartUpOptions{LogLevel: "error"}, []byte(`
klyqa:
  username: user
  password: pass
  configEntryId: entry
`))
	require.NoError(t, err)

	assert.Equal(t, 8000, s.CoreSettings().Port)
	assert.Equal(t, "entry", s.KlyqaSettings().ConfigEntryID)
	assert.Equal(t, "tcp://127.0.0.1:1883", s.MQTTSettings().Broker)
	assert.Equal(t, "klyqa", s.MQTTSettings().TopicPrefix)
}

// Tests invalid configs.
func TestLoadInvalid(t *testing.T) {
	data := map[string]string{
		"no klyqa":     "core:\n  port: 80\n",
		"no password":  "klyqa:\n  username: user\n",
		"wrong port":   "core:\n  port: 70000\nklyqa:\n  username: u\n  password: p\n",
		"wrong glob":   "klyqa:\n  username: u\n  password: p\n  exclude: ['[ab']\n",
		"wrong broker": "klyqa:\n  username: u\n  password: p\nmqtt:\n  broker: 10.0.0.1\n",
		"wrong yaml":   "klyqa: [",
		"wrong tpl":    "klyqa:\n  username: '{{ env }'\n",
		"unknown func": "klyqa:\n  username: '{{ secret \"a\" }}'\n",
	}

	for k, v := range data {
		_, err := load(&StartUpOptions{LogLevel: "error"}, []byte(v))
		assert.Error(t, err, k)
	}

	_, err := load(&StartUpOptions{LogLevel: "error"}, []byte(data["no password"]))
	assert.IsType(t, &utils.ErrInvalidConfig{}, errors.Cause(err))
}

// Tests config entry ID derivation.
func TestConfigEntryID(t *testing.T) {
	entryID := func(user string) string {
		s, err := load(&StartUpOptions{LogLevel: "error"},
			[]byte("klyqa:\n  username: "+user+"\n  password: p\n"))
		require.NoError(t, err)
		return s.KlyqaSettings().ConfigEntryID
	}

	first := entryID("a@example.com")
	assert.Len(t, first, 36)
	assert.Equal(t, first, entryID("a@example.com"))
	assert.NotEqual(t, first, entryID("b@example.com"))
}

// Tests config file reading and sqlite storage.
func TestLoadFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "klyqa-settings")
	require.NoError(t, err)
	defer os.RemoveAll(dir) // nolint: errcheck

	_, err = Load(&StartUpOptions{Config: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)

	path := filepath.Join(dir, "go-home.yaml")
	data := "core:\n  storage: " + filepath.Join(dir, "db", "registry.db") +
		"\nklyqa:\n  username: u\n  password: p\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0600))

	s, err := Load(&StartUpOptions{Config: path, LogLevel: "error"})
	require.NoError(t, err)
	defer s.Storage().Close() // nolint: errcheck

	require.NoError(t, s.Storage().Save("test", "1", []byte("data")))
	records, err := s.Storage().Load("test")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), records["1"])
}

// Tests environment template function.
func TestTemplates(t *testing.T) {
	os.Setenv("KLYQA_TEST_VALUE", "<value>") // nolint: errcheck
	defer os.Unsetenv("KLYQA_TEST_VALUE")   // nolint: errcheck

	p := newTemplateProvider(&constructTemplate{Logger: mocks.FakeNewLogger(nil)})
	data, err := p.Process([]byte(`a: {{ env "KLYQA_TEST_VALUE" }}`))
	require.NoError(t, err)
	assert.Equal(t, "a: <value>", string(data))

	_, err = p.Process([]byte(`a: {{ env "A" `))
	assert.Error(t, err)
}

// Tests secrets template function.
func TestSecrets(t *testing.T) {
	dir, err := ioutil.TempDir("", "klyqa-secrets")
	require.NoError(t, err)
	defer os.RemoveAll(dir) // nolint: errcheck

	path := filepath.Join(dir, "_secrets.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("klyqa_password: hidden\n"), 0600))

	s, err := load(&StartUpOptions{LogLevel: "error", Secrets: path},
		[]byte("klyqa:\n  username: u\n  password: '{{ sec \"klyqa_password\" }}'\n"))
	require.NoError(t, err)
	assert.Equal(t, "hidden", s.KlyqaSettings().Password)

	_, err = load(&StartUpOptions{LogLevel: "error", Secrets: path},
		[]byte("klyqa:\n  username: u\n  password: '{{ sec \"unknown\" }}'\n"))
	assert.Error(t, err)

	secrets, err := secret.NewSecretProvider(&secret.ConstructSecret{Logger: mocks.FakeNewLogger(nil)})
	require.NoError(t, err)
	require.NoError(t, secrets.Set("token", "abc"))

	p := newTemplateProvider(&constructTemplate{Logger: mocks.FakeNewLogger(nil), Secrets: secrets})
	data, err := p.Process([]byte(`a: {{ sec "token" }}`))
	require.NoError(t, err)
	assert.Equal(t, "a: abc", string(data))
}
