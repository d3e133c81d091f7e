package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiftdrop/dispatch/config"
	coremqtt "github.com/swiftdrop/dispatch/core/mqtt"
	"github.com/swiftdrop/dispatch/infra/logger"
	"github.com/swiftdrop/dispatch/infra/mqtt"
)

var offerDriverID string

var offerCmd = &cobra.Command{
	Use:   "offer",
	Short: "Send a test assignment offer to a driver and wait for the ack",
	RunE:  runOffer,
}

func init() {
	offerCmd.Flags().StringVar(&offerDriverID, "driver", "", "driver identifier")
	_ = offerCmd.MarkFlagRequired("driver")
	rootCmd.AddCommand(offerCmd)
}

func runOffer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New("offer-command")
	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	a := coremqtt.Assignment{
		DeliveryID: "test",
		PickupLat:  40.7580,
		PickupLon:  -73.9855,
		DropoffLat: 40.7128,
		DropoffLon: -74.0060,
		Type:       "STANDARD",
	}
	commandID, err := client.SendAssignment(offerDriverID, a)
	if err != nil {
		return fmt.Errorf("send assignment: %w", err)
	}
	logg.Infof("offer %s sent to driver %s", commandID, offerDriverID)

	timeout := time.Duration(cfg.Dispatch.AckTimeoutSeconds) * time.Second
	ok, err := client.WaitForAck(commandID, timeout)
	if err != nil {
		return fmt.Errorf("wait for ack: %w", err)
	}
	if !ok {
		return fmt.Errorf("driver %s declined the offer", offerDriverID)
	}
	logg.Infof("driver %s acknowledged", offerDriverID)
	return nil
}
