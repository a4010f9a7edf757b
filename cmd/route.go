package main

import (
	"github.com/spf13/cobra"
)

var routeUser string

var routeCmd = &cobra.Command{
	Use:   "route [input]",
	Short: "Classify and dispatch a single input (text or image path)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Router.Route(ctx, routeUser, args[0])
		return printJSON(result)
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeUser, "user", "anonymous", "user id for persistence")
	rootCmd.AddCommand(routeCmd)
}
