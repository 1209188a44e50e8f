package cmd

import (
	"fmt"
	"os"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/cmd/worker"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "webhook-reprocess",
		Short: "Webhook reprocessing and dispatch service",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(worker.NewWorkerCmd())
}
