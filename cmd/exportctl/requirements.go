package main

import (
	"github.com/spf13/cobra"

	"exportdocs/internal/compliance"
	compliancehandler "exportdocs/internal/compliance/handler"
)

var requirementsCmd = &cobra.Command{
	Use:   "requirements <commodity-code>",
	Short: "Show the documents a commodity code requires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matrix := compliance.Default()
		if cfg.Compliance.MatrixPath != "" {
			m, err := compliance.LoadFile(cfg.Compliance.MatrixPath)
			if err != nil {
				return err
			}
			matrix = m
		}
		return printJSON(cmd.OutOrStdout(), compliancehandler.FromRequirement(matrix.RequirementsFor(args[0])))
	},
}

func init() {
	rootCmd.AddCommand(requirementsCmd)
}
