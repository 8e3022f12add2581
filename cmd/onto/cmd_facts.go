package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ontomodel/internal/render"
	"ontomodel/internal/termfact"
)

var (
	factsJSON      bool
	factsSentences bool
)

// factsCmd lists the stored terms of a domain in authoring order
var factsCmd = &cobra.Command{
	Use:   "facts [domain]",
	Short: "List stored terms in authoring order",
	Long: `Prints every stored term of the domain in authoring order, as sort
declarations by default, as canonical sentences with --sentences, or as
kind-tagged JSON with --json.`,
	Args: cobra.ExactArgs(1),
	RunE: runFacts,
}

func init() {
	factsCmd.Flags().BoolVar(&factsJSON, "json", false, "Print facts as JSON")
	factsCmd.Flags().BoolVar(&factsSentences, "sentences", false, "Print canonical sentences")
}

func runFacts(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	facts, err := s.LoadFacts(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if factsJSON {
		return printJSON(out, facts)
	}
	if len(facts) == 0 {
		fmt.Fprintf(out, "No terms stored for %s\n", args[0])
		return nil
	}
	for _, f := range facts {
		var line string
		if factsSentences {
			line, err = termfact.Reconstruct(f)
		} else {
			line, err = render.Sort(f)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
