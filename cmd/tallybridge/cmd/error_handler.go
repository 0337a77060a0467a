package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"tallybridge/pkg/errors"
	"tallybridge/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and provides user-friendly messages
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	// Log the error
	h.logger.WithError(err).Error("Command failed")

	// Handle BridgeError with detailed information
	if bridgeErr, ok := errors.AsBridgeError(err); ok {
		return h.handleBridgeError(bridgeErr)
	}

	// Handle other error types
	return h.handleGenericError(err)
}

// handleBridgeError handles BridgeError with detailed context
func (h *CLIErrorHandler) handleBridgeError(err *errors.BridgeError) int {
	// Print the main error message
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	// Add context information if available
	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	// Add suggestion if available
	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	// Add category-specific help
	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	// Show underlying error in verbose mode
	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-BridgeError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, check the logs or run with --verbose flag\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryTransport:
		return `Transport error help:
• Check that Tally is running and its XML server is enabled (F12 > Advanced Configuration)
• Verify the port matches Tally's configuration (default 9000, flag --port)
• Use 'tallybridge execute status' to probe the engine
• Use 'tallybridge execute start_engine' to launch it`

	case errors.CategoryParse:
		return `Parse error help:
• The engine's response did not contain the expected records
• Check that the right company is loaded ('tallybridge execute status')
• Verify the engine version matches what this bridge supports
• Run with --verbose to see the raw failure`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required parameters have values
• Verify dates use YYYY-MM-DD or DD-MM-YYYY
• Ensure amounts are plain numbers without currency symbols
• Voucher types must be one of: Receipt, Payment, Sales, Purchase, Journal`

	case errors.CategoryResolution:
		return `Party resolution help:
• Check the spelling of the party name
• Try a shorter or more distinctive part of the name
• Use 'tallybridge execute resolve_party --set party_name=...' to see candidates`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Check the TALLYBRIDGE_* environment variables
• Try running with default settings first`

	default:
		return `For more help:
• Use 'tallybridge --help' for general help
• Use 'tallybridge execute --list' to see all actions
• Check the documentation for detailed examples
• Report bugs or ask for help on the project repository`
	}
}
