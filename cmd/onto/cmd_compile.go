package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ontomodel/internal/compiler"
	"ontomodel/internal/ontology"
)

var (
	compileTerms  []string
	compileDomain string
	compileTree   bool
)

// compileCmd compiles one English assertion
var compileCmd = &cobra.Command{
	Use:   "compile [assertion]",
	Short: "Compile an English assertion into a formal expression",
	Long: `Compiles one assertion and prints its formal expression. Term names used by
quantifier binding come from --term flags and, with --domain, from the
stored terms of that domain.

Example:
  onto compile --term radius "for any value of concept radius, radius is greater than 0"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringSliceVarP(&compileTerms, "term", "t", nil, "Declared term name (repeatable)")
	compileCmd.Flags().StringVarP(&compileDomain, "domain", "d", "", "Add the stored term names of this domain")
	compileCmd.Flags().BoolVar(&compileTree, "tree", false, "Also print the expression tree as JSON")
}

func runCompile(cmd *cobra.Command, args []string) error {
	terms := append([]string(nil), compileTerms...)
	if compileDomain != "" {
		s, err := openStore()
		if err != nil {
			return err
		}
		facts, err := s.LoadFacts(compileDomain)
		s.Close()
		if err != nil {
			return err
		}
		for _, f := range facts {
			terms = append(terms, f.Term)
		}
		for _, t := range []ontology.AssertionType{ontology.Ontology, ontology.Knowledge} {
			listed, err := ontology.ReadTermList(ontology.TermListFile(cfg.Model.TermListDir, compileDomain, t))
			if err != nil {
				return err
			}
			terms = append(terms, listed...)
		}
	}

	c := compiler.New(terms)
	out := cmd.OutOrStdout()
	for _, assertion := range compiler.SplitAssertions(strings.Join(args, " ")) {
		res := c.Compile(assertion)
		fmt.Fprintln(out, res.Formal)
		for _, b := range res.Bindings {
			switch {
			case b.Fallback && b.Anchor == "":
				fmt.Fprintf(out, "  warning: %s is not attached to any term\n", b.Var)
			case b.Fallback:
				fmt.Fprintf(out, "  warning: %s bound to first word %q; no declared term matched\n", b.Var, b.Anchor)
			}
		}
		if compileTree {
			if err := printJSON(out, res.Tree); err != nil {
				return err
			}
		}
	}
	return nil
}
