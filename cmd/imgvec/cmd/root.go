// Package cmd implements the imgvec commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/viant/imgvec/cmd/imgvec/cmd.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"  _                                \n" +
		" (_)_ __ ___   __ ___   _____  ___ \n" +
		" | | '_ ` _ \\ / _` \\ \\ / / _ \\/ __|\n" +
		" | | | | | | | (_| |\\ V /  __/ (__ \n" +
		" |_|_| |_| |_|\\__, | \\_/ \\___|\\___|\n" +
		"              |___/                \n"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "imgvec",
	Short:         "imgvec - image similarity search",
	Long:          color.CyanString(logo) + "\nExtracts appearance vectors from reference images and ranks them against a query image.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $IMGVEC_CONFIG)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(deleteCmd)
}
