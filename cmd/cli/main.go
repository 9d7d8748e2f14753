package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    string = "http://localhost:8787"
	output    string = "text" // "text" or "json"
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "fanhub",
	Short: "Fanhub CLI - browse the gallery and drive lightbox sessions",
	Long: `Fanhub CLI is a thin client of the gallery API.
Browse gallery items, inspect related content and step through lightbox
sessions from the terminal. Admin commands talk to the database directly.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			authToken = os.Getenv("FANHUB_TOKEN")
		}
		if v := os.Getenv("FANHUB_API_URL"); v != "" && !cmd.Flags().Changed("api") {
			apiURL = v
		}
		if verbose {
			cliLog.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to FANHUB_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log HTTP requests to stderr")

	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(lightboxCmd)
	rootCmd.AddCommand(adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
