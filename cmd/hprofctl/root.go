package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "hprofctl",
	Short: "Ingest and summarize JVM HPROF heap dumps",
	Long:  `hprofctl streams a binary HPROF heap-dump file through a pooled, concurrent ingestion pipeline and prints a class-level summary.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hprofctl version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
}
