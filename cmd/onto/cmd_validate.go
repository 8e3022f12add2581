package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ontomodel/internal/definitions"
	"ontomodel/internal/ontology"
)

// validateCmd checks definitions files without saving anything
var validateCmd = &cobra.Command{
	Use:   "validate [pattern]",
	Short: "Check definitions files without saving",
	Long: `Extracts the terms of every matching definitions file and reports template
misses, duplicate names and unresolved cross-references. Exits non-zero when
any file has issues.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := definitions.Glob(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no definitions files match %s", args[0])
	}

	v := ontology.NewValidator(engineConfig())

	out := cmd.OutOrStdout()
	failed := 0
	for _, f := range files {
		facts, err := ontology.ExtractSentences(f.Terms)
		if err == nil {
			err = v.Validate(facts)
		}
		var verr *ontology.ValidationError
		switch {
		case err == nil:
			fmt.Fprintf(out, "%s (%s): ok, %d terms\n", f.Path, f.Domain, len(facts))
		case errors.As(err, &verr):
			failed++
			fmt.Fprintf(out, "%s (%s): %d issues\n", f.Path, f.Domain, len(verr.Issues))
			for _, issue := range verr.Issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
		default:
			failed++
			fmt.Fprintf(out, "%s (%s): %v\n", f.Path, f.Domain, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d definitions files failed validation", failed, len(files))
	}
	return nil
}
