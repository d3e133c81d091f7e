package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// AckStrategy defines how a driver acknowledges assignment offers. Ack
// reports whether the offer was accepted.
type AckStrategy interface {
	Ack(ctx context.Context, cli paho.Client, ackTopic, commandID string) bool
}

// AutoAck accepts every offer after an optional fixed delay.
type AutoAck struct {
	Delay time.Duration
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ctx context.Context, cli paho.Client, ackTopic, commandID string) bool {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return false
		}
	}
	publishAck(cli, ackTopic, commandID)
	return true
}

// RandomAck ignores offers with the configured probability and waits for
// the specified delay before accepting. An ignored offer times out on the
// dispatcher side, which is how a real driver declines.
type RandomAck struct {
	Delay    time.Duration
	DropRate float64
}

// Ack implements AckStrategy.
func (r RandomAck) Ack(ctx context.Context, cli paho.Client, ackTopic, commandID string) bool {
	if r.DropRate > 0 && rng.Float64() < r.DropRate {
		return false
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return false
		}
	}
	publishAck(cli, ackTopic, commandID)
	return true
}

func publishAck(cli paho.Client, ackTopic, commandID string) {
	payload, err := json.Marshal(struct {
		CommandID string `json:"command_id"`
	}{CommandID: commandID})
	if err != nil {
		log.Printf("marshal ack: %v", err)
		return
	}
	token := cli.Publish(ackTopic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("ack publish timeout for %s", commandID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish ack error for %s: %v", commandID, err)
	}
}
