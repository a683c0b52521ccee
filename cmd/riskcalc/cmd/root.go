package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/riskcalc/config"
	"github.com/rustyeddy/riskcalc/internal/calculator"
	"github.com/rustyeddy/riskcalc/internal/logger"
	"github.com/rustyeddy/riskcalc/journal"
)

var rootCmd = &cobra.Command{
	Use:   "riskcalc",
	Short: "Risk-first position sizing for 150x USDT perpetual contracts",
	Long: `riskcalc sizes a USDT-margined perpetual order from the amount you are
willing to lose at the stop, fees included.

It supports:
  - One or two entry legs split by ratio
  - Exchange order steps and minimum order sizes per symbol
  - Single or multi-level take-profit evaluation with RR
  - A history of the last 20 calculations
  - A JSON HTTP API with Prometheus metrics`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile  string
	envFile  string
	logLevel string
)

// app holds what setup resolved for the running command.
var app struct {
	cfg *config.Config
	log *zap.Logger
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with RISKCALC_* overrides (default .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
}

func loadEnv() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	_ = godotenv.Load()
	return nil
}

func setup(cmd *cobra.Command, args []string) error {
	if err := loadEnv(); err != nil {
		return err
	}

	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	app.cfg = cfg
	app.log = log
	return nil
}

func openService(reg prometheus.Registerer) (*calculator.Service, error) {
	store, err := journal.Open(app.cfg.History, app.log)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	svc, err := calculator.NewService(app.cfg, store, app.log, reg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}
