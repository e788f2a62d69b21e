package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cbssolutions.ro/zfp-connector/receipt"
	"cbssolutions.ro/zfp-connector/zfp"
)

var (
	cfgFile string
	verbose bool

	log *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "zfpctl",
		Short: "Drive a fiscal printer through its LAN driver server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default zfpctl.json in the working directory)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, including protocol frames")
	root.PersistentFlags().String("server", "", "driver server address (host[:port])")
	_ = viper.BindPFlag("server_address", root.PersistentFlags().Lookup("server"))

	root.AddCommand(printCmd(), testPrintCmd(), reportCmd(), statusCmd(), lastReceiptCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() error {
	var err error
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("zfpctl")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("zfp")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &nf) {
			return errors.Wrap(err, "reading config")
		}
	}
	return nil
}

func loadConfig() (*receipt.Config, error) {
	cfg := &receipt.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print <order.json>",
		Short: "Fiscal-print one order and record its receipt number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var o receipt.Order
			if err := json.Unmarshal(raw, &o); err != nil {
				return errors.Wrapf(err, "decoding order %s", args[0])
			}

			w := receipt.New(cfg, receipt.WithLogger(log))
			outcome, err := w.Print(cmd.Context(), &o)
			if err != nil {
				return err
			}

			// The order file is the durable already-printed guard; write
			// the receipt number back before reporting success.
			updated, err := json.MarshalIndent(&o, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], append(updated, '\n'), 0o644); err != nil {
				return errors.Wrap(err, "recording receipt number")
			}
			fmt.Printf("receipt %s (counters %d/%d -> %d/%d)\n",
				outcome.ReceiptNumber,
				outcome.Before.LastReceiptNum, outcome.Before.TotalReceiptCounter,
				outcome.After.LastReceiptNum, outcome.After.TotalReceiptCounter)
			return nil
		},
	}
}

func testPrintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-print",
		Short: "Print a short non-fiscal receipt to verify the setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			w := receipt.New(cfg, receipt.WithLogger(log))
			if err := w.TestPrint(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("test receipt printed")
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report {z|x}",
		Short: "Print the daily fiscal report, zeroing (z) or read-only (x)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var z zfp.Zeroing
			switch strings.ToLower(args[0]) {
			case "z":
				z = zfp.Zero
			case "x":
				z = zfp.NotZero
			default:
				return errors.Errorf("unknown report type %q, expected z or x", args[0])
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			w := receipt.New(cfg, receipt.WithLogger(log))
			if err := w.PrintDailyReport(cmd.Context(), z); err != nil {
				return err
			}
			fmt.Println("daily report printed")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Read the device version, clock and status flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *zfp.Client) error {
				version, err := c.ReadVersion()
				if err != nil {
					return err
				}
				clock, err := c.ReadDateTime()
				if err != nil {
					return err
				}
				st, err := c.ReadStatus()
				if err != nil {
					return err
				}
				fmt.Println("version:", version)
				fmt.Println("clock:  ", clock.Format("02-01-2006 15:04:05"))
				for _, f := range st.Raised() {
					fmt.Println("flag:   ", f)
				}
				return nil
			})
		},
	}
}

func lastReceiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last-receipt",
		Short: "Read the last receipt number and the total receipt counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *zfp.Client) error {
				rc, err := c.ReadLastAndTotalReceiptNum()
				if err != nil {
					return err
				}
				fmt.Printf("last receipt: %d, total counter: %d\n", rc.LastReceiptNum, rc.TotalReceiptCounter)
				return nil
			})
		},
	}
}

// withClient runs fn inside one configured, compatibility-checked driver
// server session.
func withClient(ctx context.Context, fn func(*zfp.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []zfp.Option{zfp.WithEncoding(zfp.EncCP1250), zfp.WithLogger(log)}
	if cfg.CallTimeout > 0 {
		opts = append(opts, zfp.WithTimeout(cfg.CallTimeout))
	}
	c, err := zfp.Dial(ctx, cfg.ServerAddress, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SetDeviceSettings(cfg.Device); err != nil {
		return err
	}
	ok, err := c.IsCompatible()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("driver server definitions and client code have different versions")
	}
	return fn(c)
}
