package mqttbus_test

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// --- Mocks for the Paho MQTT client ---

type mockToken struct{ err error }

func (m *mockToken) Wait() bool                       { return true }
func (m *mockToken) WaitTimeout(_ time.Duration) bool { return true }
func (m *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (m *mockToken) Error() error { return m.err }

type mockMqttMessage struct {
	topic     string
	payload   []byte
	messageID uint16
}

func (m *mockMqttMessage) Topic() string     { return m.topic }
func (m *mockMqttMessage) Payload() []byte   { return m.payload }
func (m *mockMqttMessage) MessageID() uint16 { return m.messageID }
func (m *mockMqttMessage) Duplicate() bool   { return false }
func (m *mockMqttMessage) Qos() byte         { return 1 }
func (m *mockMqttMessage) Retained() bool    { return false }
func (m *mockMqttMessage) Ack()              {}

type publishedRecord struct {
	topic   string
	payload []byte
}

type mockMqttClient struct {
	mu               sync.Mutex
	isConnected      bool
	connectErr       error
	subscribeErr     error
	publishErr       error
	disconnectCalled bool
	subscribedTopic  string
	messageHandler   mqtt.MessageHandler
	published        []publishedRecord
}

func (m *mockMqttClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isConnected
}
func (m *mockMqttClient) IsConnectionOpen() bool { return m.IsConnected() }
func (m *mockMqttClient) Connect() mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return &mockToken{err: m.connectErr}
	}
	m.isConnected = true
	return &mockToken{}
}
func (m *mockMqttClient) Disconnect(_ uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isConnected = false
	m.disconnectCalled = true
}
func (m *mockMqttClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return &mockToken{err: m.subscribeErr}
	}
	m.subscribedTopic = topic
	m.messageHandler = callback
	return &mockToken{}
}
func (m *mockMqttClient) Unsubscribe(_ ...string) mqtt.Token { return &mockToken{} }
func (m *mockMqttClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return &mockToken{err: m.publishErr}
	}
	m.published = append(m.published, publishedRecord{topic: topic, payload: payload.([]byte)})
	return &mockToken{}
}

// Stubs for unused methods to satisfy the interface.
func (m *mockMqttClient) SubscribeMultiple(_ map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	return &mockToken{}
}
func (m *mockMqttClient) AddRoute(_ string, _ mqtt.MessageHandler) {}
func (m *mockMqttClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func (m *mockMqttClient) handler() mqtt.MessageHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messageHandler
}

func (m *mockMqttClient) publishedRecords() []publishedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]publishedRecord, len(m.published))
	copy(out, m.published)
	return out
}
