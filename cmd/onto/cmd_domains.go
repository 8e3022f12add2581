package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// domainsCmd lists domains; domainsCreateCmd registers a new one
var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List domains and their term counts",
	RunE:  runDomains,
}

var domainsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an empty domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runDomainsCreate,
}

func init() {
	domainsCmd.AddCommand(domainsCreateCmd)
}

func runDomains(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	domains, err := s.ListDomains()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(domains) == 0 {
		fmt.Fprintln(out, "No domains")
		return nil
	}
	for _, d := range domains {
		fmt.Fprintf(out, "%-24s %d terms\n", d.Name, d.TermCount)
	}
	return nil
}

func runDomainsCreate(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.CreateDomain(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created domain %s (id %d)\n", args[0], id)
	return nil
}
