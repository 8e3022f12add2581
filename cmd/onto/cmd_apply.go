package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ontomodel/internal/definitions"
	"ontomodel/internal/ontology"
)

var applyNoBuild bool

// applyCmd runs a full extraction pass for every matching definitions file
var applyCmd = &cobra.Command{
	Use:   "apply [pattern]",
	Short: "Save the terms of definitions files and rebuild their models",
	Long: `Loads every definitions file matching the pattern ("**" allowed), validates
its terms, saves them in authoring order, deletes stored terms that are no
longer defined and rebuilds the domain model.

Nothing is saved for a domain whose terms fail validation.

Example:
  onto apply "defs/**/*.yaml"`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyNoBuild, "no-build", false, "Save terms only, skip the model build")
}

func runApply(cmd *cobra.Command, args []string) error {
	files, err := definitions.Glob(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no definitions files match %s", args[0])
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	svc := ontology.NewService(s, newValidator())
	b := newBuilder(s)
	out := cmd.OutOrStdout()
	for _, f := range files {
		logger.Info("Applying definitions", zap.String("path", f.Path), zap.String("domain", f.Domain))
		if applyNoBuild {
			report, err := svc.ApplySentences(f.Domain, f.Terms)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
			printReport(out, report)
			continue
		}
		report, built, err := definitions.Sync(svc, b, f)
		if report != nil {
			printReport(out, report)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		fmt.Fprintf(out, "  model: %s (%d sorts, %d trees)\n", built.ModelPath, len(built.Model.Sorts), len(built.TreePaths))
	}
	return nil
}

func printReport(w io.Writer, r *ontology.Report) {
	fmt.Fprintf(w, "%s: %d inserted, %d updated, %d unchanged, %d deleted\n",
		r.Domain, r.Inserted, r.Updated, r.Unchanged, len(r.Deleted))
	for _, k := range r.Deleted {
		fmt.Fprintf(w, "  - %s %s\n", k.Kind, k.Name)
	}
}
