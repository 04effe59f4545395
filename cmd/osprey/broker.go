package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradekit/osprey/internal/broker"
	"github.com/tradekit/osprey/internal/logger"
)

var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Broker operations",
	Long:  `Commands for interacting with the broker (positions, orders, account info).`,
}

var brokerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check broker connection status",
	RunE:  runBrokerStatus,
}

var brokerAccountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show account information",
	RunE:  runBrokerAccount,
}

var brokerPositionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List current positions",
	RunE:  runBrokerPositions,
}

var brokerOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List recent orders",
	RunE:  runBrokerOrders,
}

func init() {
	rootCmd.AddCommand(brokerCmd)
	brokerCmd.AddCommand(brokerStatusCmd)
	brokerCmd.AddCommand(brokerAccountCmd)
	brokerCmd.AddCommand(brokerPositionsCmd)
	brokerCmd.AddCommand(brokerOrdersCmd)
}

// withBrokerConnection handles common broker setup and teardown.
func withBrokerConnection(fn func(b broker.Broker, log *zap.Logger) error) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	b, err := newBroker(cfg)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("broker is disabled in config")
	}

	ctx := context.Background()
	if err := b.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	defer b.Disconnect()

	return fn(b, log)
}

func runBrokerStatus(cmd *cobra.Command, args []string) error {
	return withBrokerConnection(func(b broker.Broker, log *zap.Logger) error {
		fmt.Printf("Broker:    %s\n", b.Name())
		fmt.Printf("Connected: %v\n", b.IsConnected())
		return nil
	})
}

func runBrokerAccount(cmd *cobra.Command, args []string) error {
	return withBrokerConnection(func(b broker.Broker, log *zap.Logger) error {
		balance, err := b.GetBalance(context.Background())
		if err != nil {
			return fmt.Errorf("fetching balance: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Cash:\t%.2f\n", balance.Cash)
		fmt.Fprintf(w, "Portfolio value:\t%.2f\n", balance.PortfolioValue)
		fmt.Fprintf(w, "Updated:\t%s\n", balance.UpdatedAt.Format("2006-01-02 15:04:05"))
		return w.Flush()
	})
}

func runBrokerPositions(cmd *cobra.Command, args []string) error {
	return withBrokerConnection(func(b broker.Broker, log *zap.Logger) error {
		positions, err := b.GetPositions(context.Background())
		if err != nil {
			return fmt.Errorf("fetching positions: %w", err)
		}
		if len(positions) == 0 {
			fmt.Println("No open positions")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tQTY\tAVG COST")
		for _, p := range positions {
			fmt.Fprintf(w, "%s\t%.4f\t%.2f\n", p.Symbol, p.Qty, p.AvgCost)
		}
		return w.Flush()
	})
}

func runBrokerOrders(cmd *cobra.Command, args []string) error {
	return withBrokerConnection(func(b broker.Broker, log *zap.Logger) error {
		orders, err := b.GetOrders(context.Background())
		if err != nil {
			return fmt.Errorf("fetching orders: %w", err)
		}
		if len(orders) == 0 {
			fmt.Println("No orders")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSYMBOL\tQTY\tSTOP\tTARGET\tSTATUS")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%.2f\t%.2f\t%s\n",
				o.OrderID, o.Symbol, o.Qty, o.StopLoss, o.TakeProfit, o.Status)
		}
		return w.Flush()
	})
}
