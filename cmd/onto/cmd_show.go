package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ontomodel/internal/ontology"
)

var showMarkdown bool

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	indexStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	emptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#626262"))
)

// showCmd prints a built model
var showCmd = &cobra.Command{
	Use:   "show [domain]",
	Short: "Print the built model of a domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showMarkdown, "markdown", false, "Render the model as markdown")
}

type modelSection struct {
	title string
	lines []string
}

func sections(m ontology.Model) []modelSection {
	return []modelSection{
		{"SORTS", m.Sorts},
		{"ONTOLOGY AGREEMENTS", m.OntologyAgreements},
		{"KNOWLEDGE", m.Knowledge},
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	path := ontology.ModelFile(cfg.Model.OutputDir, args[0])
	m, err := ontology.ReadModel(path)
	if err != nil {
		return fmt.Errorf("read model (run build first?): %w", err)
	}

	out := cmd.OutOrStdout()
	if showMarkdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return err
		}
		rendered, err := renderer.Render(modelMarkdown(args[0], m))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	}

	fmt.Fprint(out, styledModel(m))
	return nil
}

func styledModel(m ontology.Model) string {
	var blocks []string
	for _, s := range sections(m) {
		var sb strings.Builder
		sb.WriteString(sectionStyle.Render(s.title + ":"))
		sb.WriteString("\n")
		if len(s.lines) == 0 {
			sb.WriteString(emptyStyle.Render("Empty"))
			sb.WriteString("\n")
		}
		for i, line := range s.lines {
			sb.WriteString(indexStyle.Render(fmt.Sprintf("%d.", i+1)) + " " + line + "\n")
		}
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n")
}

func modelMarkdown(domain string, m ontology.Model) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", domain)
	for _, s := range sections(m) {
		fmt.Fprintf(&sb, "\n## %s\n\n", s.title)
		if len(s.lines) == 0 {
			sb.WriteString("_Empty_\n")
			continue
		}
		for i, line := range s.lines {
			fmt.Fprintf(&sb, "%d. `%s`\n", i+1, line)
		}
	}
	return sb.String()
}
