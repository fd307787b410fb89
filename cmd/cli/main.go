package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/scenevalidator/cmd/cli/validate"
	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	// The .env file is optional when running outside a development checkout.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(validate.Group)
	rootCmd.AddCommand(validate.Scenes)
}

var rootCmd = &cobra.Command{
	Use:  "scenevalidator-cli",
	Long: `Command line utilities for the scene continuity validation service`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
