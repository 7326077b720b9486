// go_alfred — portfolio chat assistant server.
//
// Answers visitor questions about the portfolio owner from their resume PDF
// and portfolio site, through an LLM when configured and a heuristic
// composer otherwise. Serves HTTP + WebSocket for the chat widget, a JWT
// admin API, and MCP tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	envFile string
)

var rootCmd = &cobra.Command{
	Use:           "go_alfred",
	Short:         "Portfolio chat assistant (HTTP, WebSocket and MCP)",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading configuration")
	rootCmd.AddCommand(serveCmd, askCmd, factsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
