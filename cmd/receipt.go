package main

import (
	"github.com/spf13/cobra"
)

var receiptUser string

var receiptCmd = &cobra.Command{
	Use:   "receipt [image-path]",
	Short: "Extract structured data from a receipt or bill image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Capture.Process(ctx, receiptUser, args[0])
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	receiptCmd.Flags().StringVar(&receiptUser, "user", "anonymous", "user id for persistence")
	rootCmd.AddCommand(receiptCmd)
}
