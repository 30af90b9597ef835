// Package main provides shgtables, a command line front end to the SHG
// table extraction pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lekhapal/shg-digitizer/client"
	"github.com/lekhapal/shg-digitizer/config"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/logger"
	"github.com/lekhapal/shg-digitizer/service"
	"github.com/lekhapal/shg-digitizer/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type outputOptions struct {
	format     string
	pretty     bool
	table      int
	outputPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shgtables",
		Short: "Extract tables from SHG ledgers and registers",
		Long: `shgtables turns CSV, XLSX, PDF and photographed SHG records into
normalized tables and prints them as JSON or CSV.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newParseCmd(), newNormalizeCmd())
	return rootCmd
}

func addOutputFlags(cmd *cobra.Command, out *outputOptions) {
	cmd.Flags().StringVarP(&out.outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&out.format, "format", "json", "Output format: json or csv")
	cmd.Flags().BoolVar(&out.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().IntVar(&out.table, "table", 0, "Table index written in csv format")
}

func newParseCmd() *cobra.Command {
	var (
		out      outputOptions
		noHeader bool
		docType  string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Extract the tables of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", inputPath, err)
			}

			cfg := config.LoadConfig()
			log := logger.Nop()
			if verbose {
				if log, err = logger.New(cfg.Env); err != nil {
					return err
				}
				defer log.Sync()
			}

			uploads, closeFn := newUploadService(cmd.Context(), cfg, log)
			defer closeFn()

			tables, err := uploads.ExtractTables(cmd.Context(), dto.UploadInput{
				Filename:  filepath.Base(inputPath),
				Data:      data,
				DocType:   docType,
				HeaderRow: !noHeader,
			})
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}
			return writeTables(cmd.OutOrStdout(), tables, out)
		},
	}

	addOutputFlags(cmd, &out)
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Treat the first CSV record as data")
	cmd.Flags().StringVar(&docType, "doc-type", "", "Document type used to pick the extraction prompt")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var out outputOptions

	cmd := &cobra.Command{
		Use:   "normalize [response.json]",
		Short: "Normalize a saved model response into tables",
		Long: `normalize cleans a raw extraction response (code fences and prose are
stripped) and reshapes it into tables, exactly as the upload endpoint does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			value, err := utils.ParseExtractionResponse(string(raw))
			if err != nil {
				return err
			}
			return writeTables(cmd.OutOrStdout(), utils.Normalize(value), out)
		},
	}

	addOutputFlags(cmd, &out)
	return cmd
}

// newUploadService wires the extraction pipeline without persistence. A
// missing provider only disables image, PDF and DOCX input.
func newUploadService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*service.UploadService, func()) {
	var extractor service.Extractor
	closeFn := func() {}

	provider, err := client.NewProvider(ctx, cfg)
	if err != nil {
		log.Warn("AI extraction disabled", zap.Error(err))
	} else {
		extractor = provider
		closeFn = func() { _ = provider.Close() }
	}

	hinters := []service.TextHinter{service.NewPDFHinter(service.NewPDFProcessor())}
	if cfg.OCRHintsEnabled {
		hinters = append(hinters, client.NewTesseractClient(cfg.TesseractDataPath))
	}

	extraction := service.NewExtractionService(extractor, nil, cfg.ExtractionTimeout, log, hinters...)
	return service.NewUploadService(extraction, nil, log), closeFn
}

func writeTables(stdout io.Writer, tables []dto.Table, out outputOptions) error {
	var payload []byte
	switch out.format {
	case "json":
		var err error
		if out.pretty {
			payload, err = json.MarshalIndent(tables, "", "  ")
		} else {
			payload, err = json.Marshal(tables)
		}
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		payload = append(payload, '\n')
	case "csv":
		if out.table < 0 || out.table >= len(tables) {
			return fmt.Errorf("%w: table %d of %d", dto.ErrIndexOutOfRange, out.table, len(tables))
		}
		csv, err := utils.ToCSV(tables[out.table])
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		payload = []byte(csv)
	default:
		return fmt.Errorf("invalid format: %s (must be json or csv)", out.format)
	}

	if out.outputPath != "" {
		if err := os.WriteFile(out.outputPath, payload, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err := stdout.Write(payload)
	return err
}
