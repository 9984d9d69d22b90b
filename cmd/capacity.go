package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mverdier/lineflow/config"
	"github.com/mverdier/lineflow/core/balance"
	"github.com/mverdier/lineflow/core/throughput"
	"github.com/mverdier/lineflow/infra/logger"
	"github.com/mverdier/lineflow/pkg/export"
)

var (
	capStations  int
	capDemand    int
	capHours     float64
	capEmployees int
)

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Compute line capacity at an operating point",
	RunE:  runCapacity,
}

func init() {
	capacityCmd.Flags().IntVarP(&capStations, "stations", "m", 0, "station count (0 uses the configured operating point's employee count)")
	capacityCmd.Flags().IntVar(&capDemand, "demand", 0, "daily demand target (0 uses the configured value)")
	capacityCmd.Flags().Float64Var(&capHours, "hours", 0, "operating hours per day (0 uses the configured value)")
	capacityCmd.Flags().IntVar(&capEmployees, "employees", 0, "employee count (0 uses the configured value)")
	rootCmd.AddCommand(capacityCmd)
}

func runCapacity(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	tm, err := cfg.TaskModel()
	if err != nil {
		return fmt.Errorf("task model: %w", err)
	}

	op := cfg.Operating
	if capDemand > 0 {
		op.DailyDemand = capDemand
	}
	if capHours > 0 {
		op.OpHours = capHours
	}
	if capEmployees > 0 {
		op.Employees = capEmployees
	}
	m := capStations
	if m == 0 {
		m = op.Employees
	}
	if m < 1 {
		return fmt.Errorf("station count must be set via --stations or operating.employees")
	}

	logg := logger.New("capacity-command")
	lineCfg, err := balance.BalanceStations(ctx, tm, m)
	if err != nil {
		return fmt.Errorf("balance %d stations: %w", m, err)
	}
	metrics := throughput.StationMetrics(lineCfg.Stations, tm)
	result := throughput.Capacity(op, metrics, cfg.Line)
	logg.Debugw("capacity computed", map[string]any{
		"stations":      m,
		"units_per_day": result.UnitsPerDay,
		"demand_bound":  result.DemandBound,
	})
	return export.WriteCapacityJSON(os.Stdout, result)
}
