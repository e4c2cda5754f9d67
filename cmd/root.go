// Package cmd provides the lunnor command line: the API server plus maintenance commands.
package cmd

import (
	"fmt"
	"log"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/config"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/spf13/cobra"
)

var envFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lunnor",
	Short: "Personal finance hub API",
	Long: `lunnor serves the finance hub API: transactions with recurring series,
dashboards, savings goals, the peace fund and WhatsApp notifications.

Example:
  lunnor serve
  lunnor migrate up
  lunnor export --user abc123 --format xlsx --out march.xlsx --from 2024-03-01 --to 2024-03-31`,
	SilenceUsage: true,
	// Running without a subcommand starts the server, as the old binary did.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default is .env when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
}

// loadConfig reads configuration using the --env-file flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// openDatabase connects to the configured backend.
func openDatabase(cfg *config.Config) (*database.DB, error) {
	d := cfg.Database
	db, err := database.Open(database.Config{
		Driver: d.Driver,
		Path:   d.Path,
		Postgres: database.PostgresConfig{
			URL:      d.URL,
			Host:     d.Host,
			Port:     d.Port,
			User:     d.User,
			Password: d.Password,
			DBName:   d.Name,
			SSLMode:  d.SSLMode,
		},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to %s database", db.Driver)
	return db, nil
}
