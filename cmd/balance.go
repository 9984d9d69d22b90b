package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mverdier/lineflow/config"
	"github.com/mverdier/lineflow/core/balance"
	"github.com/mverdier/lineflow/infra/logger"
)

var balanceOut string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Balance the line for every candidate station count",
	RunE:  runBalance,
}

func init() {
	balanceCmd.Flags().StringVarP(&balanceOut, "output", "o", "", "write the result JSON to a file instead of stdout")
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
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

	logg := logger.New("balance-command")
	solver := balance.NewSolver(cfg.Solver, logg, nil, nil)
	configs, err := solver.Solve(ctx, tm)
	if err != nil {
		logg.Warnf("some solves failed: %v", err)
	}
	resp := balance.NewResponse(configs)

	out := os.Stdout
	if balanceOut != "" {
		f, err := os.Create(balanceOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
