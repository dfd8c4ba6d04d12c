// Package train implements the classifier training command
package train

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fjacquet/txmerge/cmd/root"
	"fjacquet/txmerge/internal/classifier"

	"github.com/spf13/cobra"
)

// Cmd represents the train command
var Cmd = &cobra.Command{
	Use:   "train <period>",
	Short: "Build or reuse the local classifier for a month without merging",
	Long: `Assemble the training set for a month (the mapping plus the merged tables
of the preceding months), then reuse the cached classifier when the set is
unchanged or train and cache a new one. No merge artifact is written.

Example:
  txmerge train "DECEMBER 2025"`,
	Args: cobra.MinimumNArgs(1),
	RunE: trainFunc,
}

// PrintOutcome writes a one-line description of what the trainer did.
func PrintOutcome(w io.Writer, out classifier.Outcome) error {
	line := fmt.Sprintf("Classifier %s. Samples: %d. Classes: %d.", out.Status, out.Samples, out.Classes)
	if out.Fingerprint != "" {
		line += fmt.Sprintf(" Fingerprint: %s.", out.Fingerprint)
	}
	if out.Err != nil {
		line += fmt.Sprintf(" Error: %v.", out.Err)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func trainFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := c.GetEngine().Train(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return PrintOutcome(cmd.OutOrStdout(), out)
}
