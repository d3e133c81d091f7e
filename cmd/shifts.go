package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiftdrop/dispatch/core/prediction"
	"github.com/swiftdrop/dispatch/core/scheduler"
	"github.com/swiftdrop/dispatch/pkg/export"
)

var (
	shiftsConfigPath string
	shiftsRosterPath string
	shiftsDate       string
	shiftsFormat     string
	shiftsDemand     float64
)

var shiftsCmd = &cobra.Command{
	Use:   "shifts",
	Short: "Generate a day-ahead driver shift plan",
	RunE:  runShifts,
}

func init() {
	shiftsCmd.Flags().StringVar(&shiftsConfigPath, "plan-config", "shifts.yaml", "shift planning configuration file")
	shiftsCmd.Flags().StringVar(&shiftsRosterPath, "roster", "roster.yaml", "driver roster file")
	shiftsCmd.Flags().StringVar(&shiftsDate, "date", "", "plan date (YYYY-MM-DD, default tomorrow)")
	shiftsCmd.Flags().StringVar(&shiftsFormat, "format", "csv", "output format: csv or json")
	shiftsCmd.Flags().Float64Var(&shiftsDemand, "orders-per-hour", 20, "flat demand forecast in orders per hour")
	rootCmd.AddCommand(shiftsCmd)
}

func runShifts(cmd *cobra.Command, args []string) error {
	cfg, err := scheduler.LoadConfig(shiftsConfigPath)
	if err != nil {
		return fmt.Errorf("load plan config: %w", err)
	}
	drivers, windows, err := scheduler.LoadRoster(shiftsRosterPath)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	date := time.Now().UTC().AddDate(0, 0, 1)
	if shiftsDate != "" {
		date, err = time.Parse("2006-01-02", shiftsDate)
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
	}

	s := scheduler.Scheduler{
		Config:       cfg,
		Drivers:      drivers,
		Availability: windows,
		Forecast:     prediction.MockForecaster{Default: shiftsDemand},
	}
	plan, err := s.GeneratePlan(date)
	if err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}

	switch shiftsFormat {
	case "json":
		return export.WriteJSON(os.Stdout, plan)
	case "csv":
		return export.WriteCSV(os.Stdout, plan)
	default:
		return fmt.Errorf("unsupported format %q", shiftsFormat)
	}
}
