package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the clinicsched application
var rootCmd = &cobra.Command{
	Use:   "clinicsched",
	Short: "Clinic appointment booking engine exposed as an MCP server",
	Long: `clinicsched books, moves, and cancels clinic appointments against a
Google Calendar. It runs as an MCP (Model Context Protocol) server so AI
assistants can check availability, propose alternative slots, and manage
appointments on behalf of patients.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "clinicsched version %s\n" .Version}}`)

	// Google credentials and policy overrides may live in a local .env file.
	_ = godotenv.Load()

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("clinicsched version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
