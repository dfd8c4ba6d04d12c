// Package pdf implements the statement import command
package pdf

import (
	"context"
	"fmt"
	"io"

	"fjacquet/txmerge/cmd/root"
	"fjacquet/txmerge/internal/pdfparser"

	"github.com/spf13/cobra"
)

// Cmd represents the import-pdf command
var Cmd = &cobra.Command{
	Use:   "import-pdf <statement.pdf>",
	Short: "Convert a PDF bank statement into an export the merge reads",
	Long: `Extract the transaction table of a PDF statement with pdftotext and write
it as a Date, Description, Debit, Credit export into the month folder its
transactions belong to. The folder name is printed so it can be passed to
merge.

Example:
  txmerge import-pdf ~/Downloads/estatement.pdf
  txmerge merge "$(txmerge import-pdf ~/Downloads/estatement.pdf)"`,
	Args: cobra.ExactArgs(1),
	RunE: pdfFunc,
}

// PrintResult writes the month folder an import wrote to.
func PrintResult(w io.Writer, res *pdfparser.ImportResult) error {
	_, err := fmt.Fprintln(w, res.Period)
	return err
}

func pdfFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := c.GetPDFImporter().Import(ctx, args[0])
	if err != nil {
		return fmt.Errorf("import of %q failed: %w", args[0], err)
	}
	return PrintResult(cmd.OutOrStdout(), res)
}
