package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/webspider.yaml
var scopeTemplate embed.FS

// scopeFileName is the default scope file name.
const scopeFileName = ".webspider"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new webspider scope file",
		Long: `Initialize creates a new .webspider scope file in the current directory.

The generated file includes:
- Commented examples for per-host scope rules
- Authentication settings (cookies, headers)
- Documentation for all available options

Examples:
  # Create .webspider in current directory
  webspider init

  # Create scope file at a specific path
  webspider init -o myscope.yaml

  # Force overwrite existing file
  webspider init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", scopeFileName,
		"Output file path for the scope file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing scope file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("scope file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := scopeTemplate.ReadFile("templates/webspider.yaml")
	if err != nil {
		return fmt.Errorf("failed to read scope template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write scope file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write scope file: %w", err)
	}

	fmt.Printf("Created scope file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure per-host settings such as:")
	fmt.Println("  - Authentication cookies and headers")
	fmt.Println("  - Crawl depth per host")
	fmt.Println("  - URL path patterns to include or exclude")

	return nil
}
