package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
	coremqtt "github.com/swiftdrop/dispatch/core/mqtt"
	"github.com/swiftdrop/dispatch/infra/logger"
	infmqtt "github.com/swiftdrop/dispatch/infra/mqtt"
)

// Config holds the ingestion topic layout.
type Config struct {
	// TopicPrefix is the root of the telemetry topic tree. Driver apps
	// publish on <prefix>/<delivery_id>/telemetry.
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "delivery"
	}
}

// Ingestor subscribes to the telemetry topic tree and feeds decoded reports
// into the tracking engine.
type Ingestor struct {
	cfg     Config
	cli     paho.Client
	handler coremqtt.TelemetryHandler
	log     logger.Logger

	received     prometheus.Counter
	decodeErrors prometheus.Counter
	lastReceived prometheus.Gauge
}

// NewIngestor connects a dedicated MQTT session for telemetry ingestion.
func NewIngestor(mqttCfg infmqtt.Config, cfg Config, handler coremqtt.TelemetryHandler) (*Ingestor, error) {
	cfg.SetDefaults()
	opts, err := infmqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return nil, err
	}
	id := mqttCfg.ClientID
	if id != "" {
		id += "-telemetry"
	} else {
		id = "telemetry-" + uuid.NewString()
	}
	opts.SetClientID(id)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	ing := &Ingestor{
		cfg:          cfg,
		cli:          cli,
		handler:      handler,
		log:          logger.New("telemetry"),
		received:     prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_messages_received_total", Help: "Number of telemetry messages received from the broker"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_decode_errors_total", Help: "Number of telemetry payloads that failed to decode"}),
		lastReceived: prometheus.NewGauge(prometheus.GaugeOpts{Name: "telemetry_last_received_timestamp_seconds", Help: "Unix timestamp of the last telemetry message"}),
	}
	prometheus.MustRegister(ing.received, ing.decodeErrors, ing.lastReceived)
	return ing, nil
}

// Start subscribes and blocks until the context is done.
func (i *Ingestor) Start(ctx context.Context) {
	topic := strings.TrimSuffix(i.cfg.TopicPrefix, "/") + "/+/telemetry"
	if token := i.cli.Subscribe(topic, i.cfg.QoS, i.onMessage); token.Wait() && token.Error() != nil {
		i.log.Errorf("subscribe telemetry: %v", token.Error())
	}
	<-ctx.Done()
	if i.cli.IsConnected() {
		i.cli.Disconnect(250)
	}
}

func (i *Ingestor) onMessage(_ paho.Client, msg paho.Message) {
	i.received.Inc()
	i.lastReceived.SetToCurrentTime()
	report, err := decode(msg.Payload(), msg.Topic())
	if err != nil {
		i.decodeErrors.Inc()
		i.log.Errorf("telemetry decode: %v", err)
		return
	}
	if err := i.handler.Apply(report); err != nil {
		i.log.Warnf("telemetry rejected for %s: %v", report.DeliveryID, err)
	}
}

// deliveryIDFromTopic extracts the delivery id from
// <prefix>/<delivery_id>/telemetry.
func deliveryIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// decode maps the wire payload onto a report. Battery and signal are
// optional on the wire; absent values become -1 so the engine can tell
// "unreported" from zero.
func decode(payload []byte, topic string) (model.TelemetryReport, error) {
	var msg struct {
		DeliveryID string   `json:"delivery_id"`
		DriverID   string   `json:"driver_id"`
		Lat        float64  `json:"lat"`
		Lon        float64  `json:"lon"`
		SpeedKmh   float64  `json:"speed_kmh"`
		BearingDeg float64  `json:"bearing_deg"`
		AccuracyM  float64  `json:"accuracy_m"`
		TS         *int64   `json:"ts"`
		BatteryPct *float64 `json:"battery_pct"`
		SignalPct  *float64 `json:"signal_pct"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return model.TelemetryReport{}, err
	}
	if msg.DeliveryID == "" {
		msg.DeliveryID = deliveryIDFromTopic(topic)
	}
	ts := time.Now()
	if msg.TS != nil {
		ts = time.UnixMilli(*msg.TS)
	}
	report := model.TelemetryReport{
		DeliveryID: msg.DeliveryID,
		DriverID:   msg.DriverID,
		Location:   geo.Point{Lat: msg.Lat, Lon: msg.Lon},
		SpeedKmh:   msg.SpeedKmh,
		BearingDeg: msg.BearingDeg,
		AccuracyM:  msg.AccuracyM,
		Timestamp:  ts,
		BatteryPct: -1,
		SignalPct:  -1,
	}
	if msg.BatteryPct != nil {
		report.BatteryPct = *msg.BatteryPct
	}
	if msg.SignalPct != nil {
		report.SignalPct = *msg.SignalPct
	}
	return report, nil
}
