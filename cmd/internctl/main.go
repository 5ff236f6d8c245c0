// Command internctl performs maintenance tasks against the tracker database.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/config"
	"github.com/justsurfingit/internship-tracker/internal/database"
	"github.com/justsurfingit/internship-tracker/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg     *config.Config
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "internctl",
	Short:         "Maintenance commands for the internship tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.Init(level, true)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(gmailAuthCmd)
}

func openDB() (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
