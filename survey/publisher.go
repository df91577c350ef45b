package survey

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// SensorPose is the published pose of one placed scanner in the global frame
type SensorPose struct {
	ScannerID   string  `json:"scannerId"`
	Position    Vector3 `json:"position"`
	Orientation string  `json:"orientation"`
	Range       int     `json:"range"`
	Beacons     int     `json:"beacons"`
	Timestamp   int64   `json:"timestamp"`
}

// Publisher manages publishing recovered scanner poses to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	poses         map[string]*SensorPose
	mu            sync.RWMutex
}

// NewPublisher creates a new pose publisher. The prefix resolution order is
// MQTT_PUBLISH_PREFIX env var, then the given prefix, then "trenchmesh".
// If client is nil, publishing is disabled (for testing)
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if env := os.Getenv("MQTT_PUBLISH_PREFIX"); env != "" {
		prefix = env
	}
	if prefix == "" {
		prefix = "trenchmesh"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,    // QoS 0 for pose updates (fire and forget)
		retain:        true, // Retain for latest pose
		poses:         make(map[string]*SensorPose),
	}
}

// PublishPose publishes a single scanner's recovered pose to MQTT
// Publishes to both individual topic and combined poses topic
func (p *Publisher) PublishPose(scannerID string, s Sensor, beacons int) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	pose := &SensorPose{
		ScannerID:   scannerID,
		Position:    s.Position,
		Orientation: s.Orientation.String(),
		Range:       s.Range,
		Beacons:     beacons,
		Timestamp:   time.Now().Unix(),
	}

	// Store pose for combined message
	p.mu.Lock()
	p.poses[scannerID] = pose
	p.mu.Unlock()

	// Publish to individual topic: trenchmesh/{scannerID}/pose
	if err := p.publishIndividual(pose); err != nil {
		log.Printf("Error publishing pose for %s: %v", scannerID, err)
		return err
	}

	// Publish to combined topic: trenchmesh/poses
	if err := p.publishCombined(); err != nil {
		log.Printf("Error publishing combined poses: %v", err)
		return err
	}

	return nil
}

// PublishWorldMap publishes every placed sensor pose of an assembled map,
// labeling sensors S0, S1, ... in placement order, plus a map summary with
// beacon count and scanner spread
func (p *Publisher) PublishWorldMap(m *WorldMap) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	for i, placement := range m.Placements() {
		id := fmt.Sprintf("S%d", i)
		if err := p.PublishPose(id, placement.Sensor, placement.Reading.Len()); err != nil {
			return err
		}
	}

	topic := fmt.Sprintf("%s/map", p.publishPrefix)
	message := map[string]interface{}{
		"beaconCount":          m.BeaconCount(),
		"scannerCount":         len(m.Placements()),
		"maxManhattanDistance": m.MaxPairwiseDistance(),
		"timestamp":            time.Now().Unix(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling map summary: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// publishIndividual publishes a single scanner pose to its individual topic
func (p *Publisher) publishIndividual(pose *SensorPose) error {
	topic := fmt.Sprintf("%s/%s/pose", p.publishPrefix, pose.ScannerID)

	payload, err := json.Marshal(pose)
	if err != nil {
		return fmt.Errorf("marshaling pose: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("Published pose for %s: %s (%d beacons)", pose.ScannerID, pose.Position, pose.Beacons)
	return nil
}

// publishCombined publishes all scanner poses to the combined topic
func (p *Publisher) publishCombined() error {
	p.mu.RLock()
	poses := make([]*SensorPose, 0, len(p.poses))
	for _, pose := range p.poses {
		poses = append(poses, pose)
	}
	p.mu.RUnlock()

	if len(poses) == 0 {
		return nil
	}

	topic := fmt.Sprintf("%s/poses", p.publishPrefix)

	// Create combined message
	message := map[string]interface{}{
		"scanners":  poses,
		"timestamp": time.Now().Unix(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling combined poses: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	return nil
}

// GetPose returns the last published pose for a scanner
func (p *Publisher) GetPose(scannerID string) (*SensorPose, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pose, ok := p.poses[scannerID]
	return pose, ok
}

// GetAllPoses returns all known scanner poses
func (p *Publisher) GetAllPoses() map[string]*SensorPose {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Return a copy to avoid race conditions
	poses := make(map[string]*SensorPose, len(p.poses))
	for id, pose := range p.poses {
		poseCopy := *pose
		poses[id] = &poseCopy
	}
	return poses
}

// ClearPose removes a scanner's pose (e.g., when offline)
func (p *Publisher) ClearPose(scannerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.poses, scannerID)
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
