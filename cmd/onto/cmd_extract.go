package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ontomodel/internal/render"
	"ontomodel/internal/termfact"
)

var extractKind string

// extractCmd parses one term sentence without touching the store
var extractCmd = &cobra.Command{
	Use:   "extract [sentence]",
	Short: "Extract the fact of one term sentence",
	Long: `Matches a sentence against the template of its kind and prints the
resulting fact, its canonical sentence and its sort declaration.

The kind is detected from the sentence unless --kind is given.

Example:
  onto extract "Concept radius volume consists of positive dimensional values"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractKind, "kind", "k", "", "Term kind (scalar, dimensional, set, mapping, union, structural, sequence)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	sentence := strings.Join(args, " ")
	logger.Debug("Extracting", zap.String("kind", extractKind), zap.String("sentence", sentence))

	f, err := termfact.Extract(termfact.Kind(extractKind), sentence)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := printJSON(out, f); err != nil {
		return err
	}
	canonical, err := termfact.Reconstruct(f)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, canonical)
	if sort, err := render.Sort(f); err == nil {
		fmt.Fprintln(out, sort)
	}
	return nil
}
