package main

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// newDriverSession connects one simulated driver app to the broker. Sessions
// are clean; a driver that reconnects re-subscribes to its offer topic
// itself in Run.
func newDriverSession(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetKeepAlive(30 * time.Second)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}
