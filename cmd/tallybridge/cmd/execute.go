package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tallybridge/cmd/tallybridge/config"
	"tallybridge/internal/dispatch"
	"tallybridge/internal/export"
	"tallybridge/internal/gateway"
	"tallybridge/internal/reports"
	"tallybridge/pkg/logger"
)

// Flags for the execute command
var (
	setParams   []string
	exportPath  string
	listActions bool
)

// executeCmd runs one dispatcher action against the engine
var executeCmd = &cobra.Command{
	Use:   "execute [action]",
	Short: "Run a report or command action against the engine",
	Long: `Execute runs one named action through the action dispatcher: report
queries (receivables, trial_balance, gst_summary, ...), derived analytics
(bill_ageing, top_customers, inactive_suppliers, ...), and engine commands
(open_company, start_engine, create_voucher, ...).

Parameters are passed as repeated --set key=value pairs; the recognized keys
vary per action (party_name, date_from, date_to, page, type, limit,
voucher_type, days, and the voucher creation fields).

Examples:
  tallybridge execute receivables
  tallybridge execute bill_ageing --set type=payables
  tallybridge execute ledger_statement --set party_name="Rajesh Traders"
  tallybridge execute vouchers --set date_from=2026-04-01 --set date_to=2026-04-30 --set page=2
  tallybridge execute create_voucher --set voucher_type=Receipt --set party_name="Rajesh Traders" \
    --set amount=25000 --set ledger_name="HDFC Bank" --set date=2026-08-28
  tallybridge execute stock_summary --export stock.json
  tallybridge execute --list`,

	Args: cobra.MaximumNArgs(1),
	RunE: runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)

	executeCmd.Flags().StringArrayVar(&setParams, "set", nil, "action parameter as key=value (repeatable)")
	executeCmd.Flags().StringVar(&exportPath, "export", "", "write the report's tabular export as JSON to this file ('-' for stdout)")
	executeCmd.Flags().BoolVar(&listActions, "list", false, "list the supported actions and exit")
}

func runExecute(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	if err := initLogging(); err != nil {
		os.Exit(handler.HandleError(err))
	}

	dispatcher, err := buildDispatcher()
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	if listActions {
		actions := dispatcher.Actions()
		sort.Strings(actions)
		fmt.Println(strings.Join(actions, "\n"))
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("an action name is required (use --list to see them)")
	}
	action := args[0]

	params, err := parseParams(setParams)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ExecuteTimeout)
	defer cancel()

	result := dispatcher.Execute(ctx, action, params)
	fmt.Println(result.Message)

	if result.Success && exportPath != "" && result.Data != nil {
		if err := writeExport(action, result.Data); err != nil {
			os.Exit(handler.HandleError(err))
		}
	}

	if !result.Success {
		os.Exit(1)
	}
	return nil
}

// initLogging replaces the default global logger with the configured one
func initLogging() error {
	log, err := logger.NewLogger(config.CreateLoggerConfig(viper.GetBool("verbose")))
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)
	return nil
}

// buildDispatcher wires the transport, profiler, process manager, report
// service and name cache into one dispatcher for this invocation
func buildDispatcher() (*dispatch.Dispatcher, error) {
	client, err := gateway.NewClient(config.CreateClientConfig())
	if err != nil {
		return nil, err
	}

	profiler, err := gateway.NewProfiler(config.CreateProfilerConfig())
	if err != nil {
		return nil, err
	}

	process, err := gateway.NewProcessManager(config.CreateProcessConfig())
	if err != nil {
		return nil, err
	}

	dispatcherConfig := config.CreateDispatcherConfig()
	var nameCache *gateway.CompanyNameCache
	if dispatcherConfig.DataDir != "" {
		nameCache = gateway.NewCompanyNameCache(dispatcherConfig.DataDir)
	}

	return dispatch.NewDispatcher(dispatcherConfig, reports.NewService(client), profiler, process, nameCache)
}

// parseParams turns repeated key=value flags into the dispatcher's open map
func parseParams(pairs []string) (dispatch.Params, error) {
	params := dispatch.Params{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

// writeExport shapes the report data into a table and writes it as JSON
func writeExport(action string, data interface{}) error {
	table, err := export.BuildTable(action, data)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}

	if exportPath == "-" {
		fmt.Println(string(encoded))
		return nil
	}
	return os.WriteFile(exportPath, encoded, 0644)
}
