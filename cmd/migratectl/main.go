// Command migratectl inspects storefront export files offline: platform
// detection, dry-run normalization and the stage order of a migration.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/storemigrate/internal/core"
	_ "github.com/JonMunkholm/storemigrate/internal/core/platforms" // Register alias tables
	"github.com/joho/godotenv"
)

func main() {
	// A .env file may set LOG_LEVEL and LOG_FORMAT; the environment wins.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError prints the technical error and, for known failures, the
// mapped message with its support code.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
}
