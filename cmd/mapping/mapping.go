// Package mapping implements the commands that maintain the description-to-category mapping
package mapping

import (
	"fmt"
	"io"
	"sort"

	"fjacquet/txmerge/cmd/root"
	"fjacquet/txmerge/internal/store"

	"github.com/spf13/cobra"
)

// Cmd groups the mapping subcommands
var Cmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect or update the description-to-category mapping",
}

// ImportCmd merges a mapping document into the stored mapping
var ImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a mapping document into the stored mapping",
	Long: `Merge a JSON or YAML object of description to category into the stored
mapping. Existing entries are updated, placeholder categories are skipped
and the previous document is backed up before it is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: importFunc,
}

// ShowCmd prints the stored mapping
var ShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored mapping sorted by description",
	Args:  cobra.NoArgs,
	RunE:  showFunc,
}

func init() {
	Cmd.AddCommand(ImportCmd)
	Cmd.AddCommand(ShowCmd)
}

func importFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	stats, err := c.GetStore().ImportMappings(args[0])
	if err != nil {
		return err
	}
	return PrintImportStats(cmd.OutOrStdout(), stats)
}

func showFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	mappings, err := c.GetStore().LoadMappings()
	if err != nil {
		return err
	}
	return PrintMappings(cmd.OutOrStdout(), mappings)
}

// PrintImportStats writes the one-line import summary.
func PrintImportStats(w io.Writer, stats store.ImportStats) error {
	_, err := fmt.Fprintf(w, "Imported mappings. Added: %d. Updated: %d. Unchanged: %d. Skipped placeholders: %d.\n",
		stats.Added, stats.Updated, stats.Unchanged, stats.SkippedPlaceholder)
	return err
}

// PrintMappings writes one "description<TAB>category" line per entry, sorted by description.
func PrintMappings(w io.Writer, mappings map[string]string) error {
	keys := make([]string, 0, len(mappings))
	for k := range mappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", k, mappings[k]); err != nil {
			return err
		}
	}
	return nil
}
