package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/bazaarbrain/assistant/internal/stats"
	"github.com/bazaarbrain/assistant/internal/store"
)

var (
	historyUser  string
	historyLimit int
)

var simulationsCmd = &cobra.Command{
	Use:   "simulations",
	Short: "List saved simulation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sims, err := env.Store.ListSimulations(ctx, store.SimulationFilter{
			UserID: historyUser,
			Limit:  historyLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(sims)
	},
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List saved receipt extractions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		txs, err := env.Store.ListTransactions(ctx, store.TransactionFilter{
			UserID: historyUser,
			Limit:  historyLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(txs)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show success-rate counters for saved results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := stats.Collect(ctx, env.Store)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{simulationsCmd, transactionsCmd} {
		c.Flags().StringVar(&historyUser, "user", "", "filter by user id")
		c.Flags().IntVar(&historyLimit, "limit", 50, "max rows")
	}
	rootCmd.AddCommand(simulationsCmd, transactionsCmd, statsCmd)
}
