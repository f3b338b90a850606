package klyqa

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/helpers"
	"github.com/go-home-io/klyqa/providers"
	"github.com/pkg/errors"
)

const (
	// Logs representation.
	logSystemTransport = "klyqa_mqtt"

	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// ITransport defines local devices bridge.
type ITransport interface {
	Connect() error
	Publish(uid string, payload []byte) error
	Subscribe(handler func(uid string, payload []byte)) error
	Close()
}

// MQTT bridge implementation.
// Commands are published into <prefix>/<uid>/command,
// answers are received from <prefix>/<uid>/state.
type mqttTransport struct {
	sync.Mutex
	logger   common.ILoggerProvider
	settings *providers.MQTTSettings
	client   mqtt.Client
	payload  helpers.IPayloadExpression
	handler  func(uid string, payload []byte)
}

// ConstructMQTTTransport has data required for a new MQTT transport.
type ConstructMQTTTransport struct {
	Logger   common.ILoggerProvider
	Settings *providers.MQTTSettings
}

// NewMQTTTransport constructs a new MQTT bridge.
// Optional payload expression is compiled here, e.g. jq(payload, '.data').
func NewMQTTTransport(ctor *ConstructMQTTTransport) (ITransport, error) {
	t := &mqttTransport{
		logger:   ctor.Logger,
		settings: ctor.Settings,
	}

	if ctor.Settings.Payload != "" {
		exp, err := helpers.NewParser().Compile(ctor.Settings.Payload)
		if err != nil {
			return nil, errors.Wrap(err, "compile payload expression")
		}
		t.payload = exp
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(ctor.Settings.Broker)
	opts.SetClientID(ctor.Settings.ClientID)
	opts.SetUsername(ctor.Settings.Username)
	opts.SetPassword(ctor.Settings.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		t.resubscribe()
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		t.logger.Error("Lost connection to the MQTT broker", err, common.LogSystemToken, logSystemTransport)
	})

	t.client = mqtt.NewClient(opts)
	return t, nil
}

// Connect establishes connection to the broker.
func (t *mqttTransport) Connect() error {
	token := t.client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return errors.New("timeout connecting to the MQTT broker")
	}

	if err := token.Error(); err != nil {
		return errors.Wrap(err, "connect to the MQTT broker")
	}

	t.logger.Info("Connected to the MQTT broker", common.LogSystemToken, logSystemTransport,
		common.LogURLToken, t.settings.Broker)
	return nil
}

// Publish sends command to the device.
func (t *mqttTransport) Publish(uid string, payload []byte) error {
	topic := t.commandTopic(uid)
	token := t.client.Publish(topic, mqttQoS, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errors.New("timeout publishing to the MQTT broker")
	}

	if err := token.Error(); err != nil {
		return errors.Wrap(err, "publish command")
	}

	t.logger.Debug("Published command", common.LogSystemToken, logSystemTransport,
		common.LogTopicToken, topic)
	return nil
}

// Subscribe registers answers handler.
func (t *mqttTransport) Subscribe(handler func(uid string, payload []byte)) error {
	t.Lock()
	t.handler = handler
	t.Unlock()

	token := t.client.Subscribe(t.stateTopic(), mqttQoS, t.dispatch)
	token.Wait()
	return errors.Wrap(token.Error(), "subscribe to devices state")
}

// Close disconnects from the broker.
func (t *mqttTransport) Close() {
	if t.client.IsConnected() {
		t.client.Disconnect(250)
	}
}

// Routes incoming message to the handler.
func (t *mqttTransport) dispatch(_ mqtt.Client, msg mqtt.Message) {
	uid, ok := t.uidFromTopic(msg.Topic())
	if !ok {
		t.logger.Warn("Received message from unexpected topic", common.LogSystemToken, logSystemTransport,
			common.LogTopicToken, msg.Topic())
		return
	}

	payload := msg.Payload()
	if t.payload != nil {
		var err error
		payload, err = t.payload.Extract(payload)
		if err != nil {
			t.logger.Error("Failed to extract payload", err, common.LogSystemToken, logSystemTransport,
				common.LogTopicToken, msg.Topic())
			return
		}
	}

	t.Lock()
	h := t.handler
	t.Unlock()

	if h != nil {
		h(uid, payload)
	}
}

// Restores subscription after reconnect.
func (t *mqttTransport) resubscribe() {
	t.Lock()
	h := t.handler
	t.Unlock()

	if nil == h {
		return
	}

	t.client.Subscribe(t.stateTopic(), mqttQoS, t.dispatch).Wait()
}

func (t *mqttTransport) commandTopic(uid string) string {
	return fmt.Sprintf("%s/%s/command", t.settings.TopicPrefix, uid)
}

func (t *mqttTransport) stateTopic() string {
	return fmt.Sprintf("%s/+/state", t.settings.TopicPrefix)
}

// Extracts device unit ID from the state topic.
func (t *mqttTransport) uidFromTopic(topic string) (string, bool) {
	prefix := t.settings.TopicPrefix + "/"
	if !strings.HasPrefix(topic, prefix) || !strings.HasSuffix(topic, "/state") {
		return "", false
	}

	uid := strings.TrimSuffix(strings.TrimPrefix(topic, prefix), "/state")
	if uid == "" || strings.Contains(uid, "/") {
		return "", false
	}

	return FormatUID(uid), true
}
