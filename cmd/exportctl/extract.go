package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	compliancehandler "exportdocs/internal/compliance/handler"
	"exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	id "exportdocs/pkg/domain"
)

var extractType string

var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Preview the fields extracted from a document's text",
	Long:  "Runs field and container extraction over a text file without storing anything. Use - to read standard input.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docType, err := id.ParseDocumentType(extractType)
		if err != nil {
			return err
		}

		var src io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			src = f
		}
		raw, err := io.ReadAll(io.LimitReader(src, models.MaxTextLength+1))
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}
		if len(raw) > models.MaxTextLength {
			return fmt.Errorf("text exceeds %d bytes", models.MaxTextLength)
		}

		text := string(raw)
		resp := &compliancehandler.PreviewResponse{
			DocumentType: docType.String(),
			Fields:       extraction.ParseFields(docType, text),
		}
		if docType.IsExtractable() {
			c := extraction.ExtractContainer(text)
			resp.Container = &c
			resp.Suggestible = c.Suggestible(cfg.Compliance.SuggestionThreshold)
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractType, "type", "", "document type, e.g. BILL_OF_LADING")
	_ = extractCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(extractCmd)
}
