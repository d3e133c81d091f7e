package mqtt

import (
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/swiftdrop/dispatch/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// MockClient is a broker-free client used in tests.
type MockClient struct {
	Offers       map[string]coremqtt.Assignment
	StateChanges map[string][][]byte
	FailIDs      map[string]bool
	AckResults   map[string]bool
	mu           sync.Mutex
}

// NewMockClient creates a new MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		Offers:       make(map[string]coremqtt.Assignment),
		StateChanges: make(map[string][][]byte),
		FailIDs:      make(map[string]bool),
		AckResults:   make(map[string]bool),
	}
}

// SendAssignment records the offer or returns an error if configured to fail.
func (m *MockClient) SendAssignment(driverID string, a coremqtt.Assignment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[driverID] {
		return "", fmt.Errorf("publish failed")
	}
	commandID := fmt.Sprintf("cmd-%s", driverID)
	a.CommandID = commandID
	a.DriverID = driverID
	m.Offers[driverID] = a
	if _, ok := m.AckResults[commandID]; !ok {
		m.AckResults[commandID] = true
	}
	return commandID, nil
}

// WaitForAck simulates an immediate acknowledgment based on the stored result.
func (m *MockClient) WaitForAck(commandID string, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[commandID]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("unknown command")
	}
	return ok, nil
}

// PublishStateChange records the payload per delivery.
func (m *MockClient) PublishStateChange(deliveryID string, payload []byte) error {
	m.mu.Lock()
	m.StateChanges[deliveryID] = append(m.StateChanges[deliveryID], payload)
	m.mu.Unlock()
	return nil
}
