// Command hprofctl is the CLI driver over the hprof ingestion engine: the
// runnable entry point spec.md §1 deliberately keeps out of core (the
// core exposes only a typed Heap and aggregate counters).
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
