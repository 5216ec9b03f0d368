package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/doc-preprocessor/config"
	"github.com/fyerfyer/doc-preprocessor/internal/models"
	"github.com/fyerfyer/doc-preprocessor/internal/services"
	"github.com/fyerfyer/doc-preprocessor/pkg/logger"
)

var (
	chunkSize    int
	chunkOverlap int
	skipImages   bool
	outputFile   string
	prettyJSON   bool
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Preprocess a document into chunk records",
	Long: `Loads the document, splits it into chunks, locates every chunk on the rendered
PDF and attaches the images found on the same page. Records are printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "chunk size in characters (0 uses config)")
	processCmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "chunk overlap in characters (0 uses config, -1 disables)")
	processCmd.Flags().BoolVar(&skipImages, "skip-images", false, "do not extract page images")
	processCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write records to file instead of stdout")
	processCmd.Flags().BoolVar(&prettyJSON, "pretty", false, "indent JSON output")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log, cmd.ErrOrStderr())
	preprocessor, err := setupPreprocessor(cfg, log)
	if err != nil {
		return err
	}

	// Ctrl+C 在下一个检查点取消处理
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := preprocessor.Process(ctx, args[0], services.ProcessOptions{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		SkipImages:   skipImages,
	})
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}

	return writeRecords(cmd, records)
}

func writeRecords(cmd *cobra.Command, records []models.VectorRecord) error {
	var (
		data []byte
		err  error
	)
	if prettyJSON {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
