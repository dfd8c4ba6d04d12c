// Package merge implements the merge-and-categorize command
package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fjacquet/txmerge/cmd/root"
	"fjacquet/txmerge/internal/merger"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"

	"github.com/spf13/cobra"
)

// CodeOK is the result code of a successful run.
const CodeOK = "ok"

// JSONOutput selects the machine-readable result object.
var JSONOutput bool

// Cmd represents the merge command
var Cmd = &cobra.Command{
	Use:   "merge <period>",
	Short: "Merge and categorize the exports of one month folder",
	Long: `Merge every bank CSV export of a month folder into one deduplicated,
categorized table. The merged table, the combined table and the audit
summary are written next to the exports, all or nothing.

Example:
  txmerge merge "DECEMBER 2025"
  txmerge merge DECEMBER 2025 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: mergeFunc,
}

func init() {
	Cmd.Flags().BoolVar(&JSONOutput, "json", false, "Print the result as a JSON object")
}

// Response is the --json result object.
type Response struct {
	OK        bool                 `json:"ok"`
	Code      string               `json:"code"`
	Message   string               `json:"message"`
	MLStatus  string               `json:"ml_status,omitempty"`
	Retrained bool                 `json:"retrained"`
	Audit     *models.AuditSummary `json:"audit,omitempty"`
}

// NewResponse describes the outcome of a run.
func NewResponse(res *merger.Result, err error) Response {
	if err != nil {
		return Response{Code: string(mergeerror.CodeOf(err)), Message: err.Error()}
	}
	return Response{
		OK:        true,
		Code:      CodeOK,
		Message:   res.Message(),
		MLStatus:  res.MLStatus,
		Retrained: res.Retrained,
		Audit:     &res.Summary,
	}
}

// Render writes the outcome to w as one line of text or as a JSON object.
// Failures are only rendered in JSON mode; otherwise the caller reports them.
func Render(w io.Writer, res *merger.Result, err error, asJSON bool) error {
	if asJSON {
		data, merr := json.Marshal(NewResponse(res, err))
		if merr != nil {
			return fmt.Errorf("failed to encode result: %w", merr)
		}
		_, werr := fmt.Fprintln(w, string(data))
		return werr
	}
	if err != nil {
		return nil
	}
	_, werr := fmt.Fprintln(w, res.Message())
	return werr
}

func mergeFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	period := strings.Join(args, " ")
	res, runErr := c.GetEngine().Run(ctx, period)
	if err := Render(cmd.OutOrStdout(), res, runErr, JSONOutput); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("merge of %q failed: %w", period, runErr)
	}
	return nil
}
