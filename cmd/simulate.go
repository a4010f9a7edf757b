package main

import (
	"github.com/spf13/cobra"
)

var simulateUser string

var simulateCmd = &cobra.Command{
	Use:   "simulate [query]",
	Short: "Run a what-if business simulation directly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Simulation.Run(ctx, simulateUser, args[0])
		return printJSON(result)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateUser, "user", "anonymous", "user id for persistence")
	rootCmd.AddCommand(simulateCmd)
}
