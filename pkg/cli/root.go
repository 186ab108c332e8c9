// Package cli wires the scangate commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time.
	Version = "0.1.0"
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "scangate",
		Short: "Container scan orchestration and gate engine",
		Long:  "scangate runs vulnerability scan profiles against a built artifact, aggregates findings, applies gate policies and emits reports for CI dashboards and artifact stores.",
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "scangate.yaml", "Run configuration file")
	rootCmd.PersistentFlags().StringP("output", "o", "./reports", "Report store directory")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	// Environment variable support (SCANGATE_OUTPUT, etc.)
	viper.SetEnvPrefix("SCANGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Subcommands
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scangate version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("scangate %s\n", Version)
		},
	}
}
