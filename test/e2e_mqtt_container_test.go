package test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/swiftdrop/dispatch/core/clock"
	"github.com/swiftdrop/dispatch/core/delivery"
	"github.com/swiftdrop/dispatch/core/dispatch"
	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
	coremqtt "github.com/swiftdrop/dispatch/core/mqtt"
	"github.com/swiftdrop/dispatch/core/registry"
	"github.com/swiftdrop/dispatch/core/tracking"
	"github.com/swiftdrop/dispatch/infra/logger"
	infmqtt "github.com/swiftdrop/dispatch/infra/mqtt"
	"github.com/swiftdrop/dispatch/infra/telemetry"
	"github.com/swiftdrop/dispatch/test/util"
)

func connectClient(t *testing.T, broker, id string) paho.Client {
	t.Helper()
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(id)
	cli := paho.NewClient(opts)
	var connErr error
	for i := 0; i < 5; i++ {
		token := cli.Connect()
		token.Wait()
		connErr = token.Error()
		if connErr == nil {
			return cli
		}
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	t.Fatalf("connect %s: %v", id, connErr)
	return nil
}

func newTestDriver(id string, at geo.Point) model.Driver {
	return model.Driver{
		ID:                    id,
		Availability:          model.StatusAvailable,
		LicenseValid:          true,
		BackgroundCheckPassed: true,
		Location:              &at,
		Vehicle:               model.Vehicle{Type: model.VehicleCar, Status: model.VehicleActive},
	}
}

// TestE2EOfferAckOverBroker runs the full offer round trip against a real
// Mosquitto broker: the manager publishes an assignment offer, a simulated
// driver app acks it, and the delivery ends up bound.
func TestE2EOfferAckOverBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	// Simulated driver app: ack every offer it receives.
	drvCli := connectClient(t, broker, "driver-app-e2e")
	defer drvCli.Disconnect(100)
	ackHandler := func(_ paho.Client, msg paho.Message) {
		var a coremqtt.Assignment
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			t.Errorf("decode offer: %v", err)
			return
		}
		payload, _ := json.Marshal(map[string]string{"command_id": a.CommandID})
		drvCli.Publish("driver/ack", 0, false, payload)
	}
	if token := drvCli.Subscribe("driver/drv-e2e/assignment", 0, ackHandler); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe offers: %v", token.Error())
	}

	mqttCfg := infmqtt.Config{Broker: broker, ClientID: "dispatch-e2e"}
	mqttCfg.SetDefaults()
	client, err := infmqtt.NewPahoClient(mqttCfg)
	if err != nil {
		t.Fatalf("paho client: %v", err)
	}
	defer client.Disconnect()

	reg := registry.NewMemoryRegistry()
	reg.Put(newTestDriver("drv-e2e", geo.Point{Lat: 40.7128, Lon: -74.0060}))

	svc, err := delivery.NewService(delivery.NewMemoryStore(), reg, clock.System{}, logger.NopLogger{}, 0)
	if err != nil {
		t.Fatalf("delivery service: %v", err)
	}
	dcfg := dispatch.Config{AckTimeoutSeconds: 5}
	dcfg.SetDefaults()
	mgr, err := dispatch.NewManager(reg, svc, dcfg, clock.System{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	mgr.SetClient(client)

	d, err := svc.Create(model.Delivery{
		OrderID: "order-e2e",
		Type:    model.TypeStandard,
		Pickup:  geo.Point{Lat: 40.7130, Lon: -74.0055},
		Dropoff: geo.Point{Lat: 40.7060, Lon: -74.0090},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if n := mgr.MatchPending(); n != 1 {
		t.Fatalf("expected 1 bound delivery, got %d", n)
	}
	got, err := svc.Get(d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.DeliveryAssigned || got.DriverID != "drv-e2e" {
		t.Fatalf("delivery = %s/%s, want ASSIGNED/drv-e2e", got.Status, got.DriverID)
	}
}

// TestE2ETelemetryIngestion pushes telemetry through a real broker into the
// tracking engine and checks the customer snapshot reflects the position.
func TestE2ETelemetryIngestion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	tcfg := tracking.Config{}
	tcfg.SetDefaults()
	tracker, err := tracking.NewEngine(tcfg, clock.System{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	tracker.Open(model.Delivery{
		ID:       "del-e2e",
		DriverID: "drv-e2e",
		Pickup:   geo.Point{Lat: 40.7130, Lon: -74.0055},
		Dropoff:  geo.Point{Lat: 40.7060, Lon: -74.0090},
	})

	mqttCfg := infmqtt.Config{Broker: broker, ClientID: "telemetry-e2e"}
	mqttCfg.SetDefaults()
	ing, err := telemetry.NewIngestor(mqttCfg, telemetry.Config{}, tracker)
	if err != nil {
		t.Fatalf("ingestor: %v", err)
	}
	ingCtx, ingCancel := context.WithCancel(ctx)
	defer ingCancel()
	go ing.Start(ingCtx)

	pub := connectClient(t, broker, "driver-telemetry-e2e")
	defer pub.Disconnect(100)

	payload := fmt.Sprintf(`{"delivery_id":"del-e2e","driver_id":"drv-e2e","lat":40.7129,"lon":-74.0056,"speed_kmh":18,"accuracy_m":8,"ts":%d}`,
		time.Now().UnixMilli())

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		pub.Publish("delivery/del-e2e/telemetry", 0, false, []byte(payload))
		time.Sleep(200 * time.Millisecond)
		snap, ok := tracker.Snapshot("del-e2e")
		if ok && snap.Location.Lat != 0 {
			if snap.Location.Lat != 40.7129 || snap.Location.Lon != -74.0056 {
				t.Fatalf("snapshot location = %v, want 40.7129/-74.0056", snap.Location)
			}
			return
		}
	}
	t.Fatal("telemetry never reached the tracking engine")
}
