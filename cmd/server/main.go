package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Shopping concierge backend",
	Long: `The concierge answers shopper messages by classifying intent, matching products
from the boutique catalog and managing the shopper's cart. Gemini is used for
generated answers and embeddings when an API key is configured.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
