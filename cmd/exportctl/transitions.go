package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"exportdocs/internal/lifecycle"
)

var transitionsCmd = &cobra.Command{
	Use:   "transitions",
	Short: "Print the document lifecycle transition table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FROM\tTO\tTRIGGER\tROLES")
		for _, r := range lifecycle.Rules() {
			roles := make([]string, 0, len(r.Roles))
			for _, role := range r.Roles {
				roles = append(roles, role.String())
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.From, r.To, r.Trigger, strings.Join(roles, ","))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(transitionsCmd)
}
