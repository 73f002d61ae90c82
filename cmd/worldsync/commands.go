package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mxkacsa/worldsync/internal/config"
	"github.com/mxkacsa/worldsync/internal/logging"
)

// --- Global Command Variables ---
var (
	cfg    config.Config
	logger = zerolog.Nop()

	logLevel      string
	logFormat     string
	strictHelpers bool
	stateFile     string
	outputFormat  string
	httpAddr      string
	watchWorld    bool

	rootCmd = &cobra.Command{
		Use:           "worldsync",
		Short:         "Track logic for randomized game worlds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				loaded.LogFormat = logFormat
			}
			if cmd.Flags().Changed("strict") {
				loaded.StrictHelpers = strictHelpers
			}
			if cmd.Flags().Changed("addr") {
				loaded.HTTPAddr = httpAddr
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			l, err := logging.New(loaded)
			if err != nil {
				return err
			}
			cfg, logger = loaded, l
			return nil
		},
	}

	// --- World files ---
	validateCmd = &cobra.Command{
		Use:   "validate [rules.json...]",
		Short: "Check rules files without solving them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}
	solveCmd = &cobra.Command{
		Use:   "solve [rules.json]",
		Short: "Solve a rules file against an inventory and print the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of a rules file",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}

	// --- Long running ---
	watchCmd = &cobra.Command{
		Use:   "watch [rules.json]",
		Short: "Re-solve whenever the rules file changes and print what changed",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	serveCmd = &cobra.Command{
		Use:   "serve [rules.json]",
		Short: "Serve snapshots and accept inventory updates over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides WORLDSYNC_LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console or json); overrides WORLDSYNC_LOG_FORMAT")
	rootCmd.PersistentFlags().BoolVar(&strictHelpers, "strict", false, "Reject rules calling helpers no plugin provides")

	solveCmd.Flags().StringVarP(&stateFile, "state", "s", "", "YAML file with the inventory and checked locations")
	solveCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table or json")

	watchCmd.Flags().StringVarP(&stateFile, "state", "s", "", "YAML file with the inventory and checked locations")

	serveCmd.Flags().StringVar(&httpAddr, "addr", "", "Listen address; overrides WORLDSYNC_HTTP_ADDR")
	serveCmd.Flags().BoolVar(&watchWorld, "watch", false, "Reload the rules file when it changes")

	rootCmd.AddCommand(validateCmd, solveCmd, schemaCmd, watchCmd, serveCmd)
}
