package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ontomodel/internal/definitions"
	"ontomodel/internal/ontology"
)

var (
	buildOntology  []string
	buildKnowledge []string
	buildDefs      string
)

// buildCmd rebuilds the model of a stored domain
var buildCmd = &cobra.Command{
	Use:   "build [domain]",
	Short: "Render sorts and compile assertions for a stored domain",
	Long: `Renders every stored term of the domain as a sort declaration, compiles the
ontology agreements and knowledge assertions, and writes <domain>_model.json
plus one expression tree file per assertion.

Assertions come from --defs, or from repeated --ontology/--knowledge flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSliceVar(&buildOntology, "ontology", nil, "Ontology agreement assertion (repeatable)")
	buildCmd.Flags().StringSliceVar(&buildKnowledge, "knowledge", nil, "Knowledge assertion (repeatable)")
	buildCmd.Flags().StringVar(&buildDefs, "defs", "", "Definitions file supplying the assertions")
}

func runBuild(cmd *cobra.Command, args []string) error {
	in := ontology.BuildInput{Domain: args[0], Ontology: buildOntology, Knowledge: buildKnowledge}
	if buildDefs != "" {
		f, err := definitions.Load(buildDefs)
		if err != nil {
			return err
		}
		if f.Domain != in.Domain {
			return fmt.Errorf("%s defines domain %q, not %q", buildDefs, f.Domain, in.Domain)
		}
		in = f.BuildInput()
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := newBuilder(s).Build(in)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), ontology.FormatModel(res.Model))
	fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %s and %d expression trees\n", res.ModelPath, len(res.TreePaths))
	return nil
}
