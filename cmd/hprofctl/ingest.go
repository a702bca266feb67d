package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hprofkit/hprofctl/internal/hprof/engine"
	"github.com/hprofkit/hprofctl/utils"
)

var (
	chunkSizeMB  int
	chunkBuffers int
	quiet        bool
)

var ingestCmd = &cobra.Command{
	Use:               "ingest [hprof-file]",
	Short:             "Ingest a heap dump and print a class-level summary",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".hprof"}, true),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		fi, err := os.Stat(filename)
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}
		if ext := filepath.Ext(filename); ext != ".hprof" {
			fmt.Printf("Warning: file extension %q is not .hprof, proceeding anyway...\n", ext)
		}

		logger := log.New(os.Stderr)
		if quiet {
			logger.SetLevel(log.ErrorLevel)
		}

		opts := engine.Options{
			ChunkSize:    chunkSizeMB << 20,
			ChunkBuffers: chunkBuffers,
			Logger:       logger,
		}

		ctx := context.Background()
		progress, resultCh := engine.IngestWithOptions(ctx, filename, opts)

		if !quiet {
			runProgressBar(fi.Size(), progress)
		} else {
			for range progress {
			}
		}

		result := <-resultCh
		if result.Err != nil {
			return fmt.Errorf("ingest %s: %w", filename, result.Err)
		}

		renderReport(result.Heap)
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&chunkSizeMB, "chunk-size-mb", 64, "prefetch reader chunk size in MiB")
	ingestCmd.Flags().IntVar(&chunkBuffers, "chunk-buffers", 2, "number of pooled chunk buffers")
	ingestCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the progress bar and verbose logging")
}
