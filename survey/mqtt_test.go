package survey

import (
	"strings"
	"sync"
	"testing"
)

// reportHandlerRecorder collects MessageHandler invocations.
type reportHandlerRecorder struct {
	mu      sync.Mutex
	ids     []string
	reading *Reading
	err     error
}

func (h *reportHandlerRecorder) handle(scannerID string, rawPayload []byte, reading *Reading, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, scannerID)
	h.reading = reading
	h.err = err
}

func (h *reportHandlerRecorder) last() (*Reading, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reading, h.err
}

func mqttTestConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{Broker: "tcp://localhost:1883"},
		Scanners: []ScannerConfig{
			{ID: "scanner-0", Topic: "trench/scanner-0/report"},
			{ID: "scanner-1", Topic: "trench/scanner-1/report"},
		},
	}
}

// ---------------------------------------------------------------------------
// initialization
// ---------------------------------------------------------------------------

func TestInitMQTT_Disabled(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")

	client, err := InitMQTT(&Config{}, nil)
	if err != nil {
		t.Fatalf("InitMQTT: %v", err)
	}
	if client != nil {
		t.Error("InitMQTT without a broker should return nil client")
	}
}

func TestInitMQTT_NoScanners(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")

	if _, err := InitMQTT(&Config{}, nil); err == nil {
		t.Error("InitMQTT with a broker but no scanners should fail")
	}
	if _, err := InitMQTT(nil, nil); err == nil {
		t.Error("InitMQTT with a broker but nil config should fail")
	}
}

// ---------------------------------------------------------------------------
// subscriptions and message dispatch
// ---------------------------------------------------------------------------

func TestMQTT_SubscribeAndDispatch(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	recorder := &reportHandlerRecorder{}
	client := newMQTTClientWithMock(mock, mqttTestConfig(), recorder.handle)

	// connecting subscribes every configured scanner topic
	client.onConnect(mock)

	payload := "--- scanner 0 ---\n404,-588,-901\n528,-643,409\n7,-33,-71\n"
	mock.SimulateMessage("trench/scanner-0/report", []byte(payload))

	reading, err := recorder.last()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if reading == nil {
		t.Fatal("handler received no reading")
	}
	if reading.Len() != 3 {
		t.Errorf("reading has %d beacons, want 3", reading.Len())
	}
	if !reading.Contains(Vector3{X: 7, Y: -33, Z: -71}) {
		t.Errorf("reading %v missing expected beacon", reading.Beacons())
	}
	if len(recorder.ids) != 1 || recorder.ids[0] != "scanner-0" {
		t.Errorf("handler ids = %v, want [scanner-0]", recorder.ids)
	}
}

func TestMQTT_DispatchPerScanner(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	recorder := &reportHandlerRecorder{}
	client := newMQTTClientWithMock(mock, mqttTestConfig(), recorder.handle)
	client.onConnect(mock)

	mock.SimulateMessage("trench/scanner-1/report", []byte("1,2,3\n"))

	if len(recorder.ids) != 1 || recorder.ids[0] != "scanner-1" {
		t.Errorf("handler ids = %v, want [scanner-1]", recorder.ids)
	}
}

func TestMQTT_MalformedPayload(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	recorder := &reportHandlerRecorder{}
	client := newMQTTClientWithMock(mock, mqttTestConfig(), recorder.handle)
	client.onConnect(mock)

	mock.SimulateMessage("trench/scanner-0/report", []byte("not,a\nreport\n"))

	reading, err := recorder.last()
	if err == nil {
		t.Fatal("handler should receive a parse error")
	}
	if reading != nil {
		t.Errorf("handler reading = %v, want nil on parse error", reading)
	}
}

func TestMQTT_MultiReadingPayloadRejected(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	recorder := &reportHandlerRecorder{}
	client := newMQTTClientWithMock(mock, mqttTestConfig(), recorder.handle)
	client.onConnect(mock)

	payload := "--- scanner 0 ---\n1,2,3\n--- scanner 1 ---\n4,5,6\n"
	mock.SimulateMessage("trench/scanner-0/report", []byte(payload))

	_, err := recorder.last()
	if err == nil {
		t.Fatal("payload with two reports should be rejected")
	}
	if !strings.Contains(err.Error(), "expected 1 reading") {
		t.Errorf("error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// connection state
// ---------------------------------------------------------------------------

func TestMQTT_ConnectionState(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	client := newMQTTClientWithMock(mock, mqttTestConfig(), nil)
	if client.IsConnected() {
		t.Error("fresh client should not report connected")
	}

	client.onConnect(mock)
	if !client.IsConnected() {
		t.Error("onConnect should mark the client connected")
	}

	client.onConnectionLost(mock, nil)
	if client.IsConnected() {
		t.Error("onConnectionLost should mark the client disconnected")
	}
}

func TestMQTT_Disconnect(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	client := newMQTTClientWithMock(mock, mqttTestConfig(), nil)
	client.onConnect(mock)

	client.Disconnect()
	if mock.IsConnected() {
		t.Error("Disconnect should close the underlying connection")
	}
	if client.IsConnected() {
		t.Error("Disconnect should clear the connected flag")
	}
}

func TestMockClient_PublishRequiresConnection(t *testing.T) {
	mock := NewMockClient()

	token := mock.Publish("trench/scanner-0/report", 0, false, "1,2,3")
	if token.Error() == nil {
		t.Error("publish while disconnected should fail")
	}

	mock.SetConnected(true)
	token = mock.Publish("trench/scanner-0/report", 0, false, "1,2,3")
	if token.Error() != nil {
		t.Errorf("publish while connected failed: %v", token.Error())
	}
	msgs := mock.GetPublishedMessages()
	if len(msgs) != 1 || string(msgs[0].Payload) != "1,2,3" {
		t.Errorf("published messages = %v", msgs)
	}
}
