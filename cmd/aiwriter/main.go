package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var siteStylesPath string

var rootCmd = &cobra.Command{
	Use:   "aiwriter",
	Short: "AI article pipeline for multiple content sites",
	Long: `aiwriter generates SEO blog articles for a family of content sites:
keyword research, title planning, article drafting with stock imagery,
and publishing to each site's GitHub repository.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&siteStylesPath, "site-styles", "", "Path to a site styles YAML file (defaults to the embedded profiles)")
	rootCmd.AddCommand(serveCmd, generateCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
