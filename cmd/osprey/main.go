package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "osprey",
	Short: "Osprey - MACD swing trading bot",
	Long: `Osprey watches a universe of symbols, re-optimizes stop and profit
ratios against historical data every day, and submits bracket orders
when a fresh entry signal appears.`,
}

func init() {
	cobra.OnInitialize(func() {
		// Credentials may live in a .env next to the binary.
		godotenv.Load()
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
