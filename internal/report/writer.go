package report

import (
	"path/filepath"

	"fjacquet/txmerge/internal/fileutils"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"
)

// FileNames are the artifact names inside a period folder.
type FileNames struct {
	Merged   string
	Combined string
	Audit    string
}

// Writer commits a run's artifacts as one unit.
type Writer struct {
	committer *fileutils.Committer
	logger    logging.Logger
}

// NewWriter creates a Writer. A nil committer uses os.Rename.
func NewWriter(committer *fileutils.Committer, logger logging.Logger) *Writer {
	if committer == nil {
		committer = fileutils.NewCommitter()
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Writer{committer: committer, logger: logger}
}

// Paths returns the artifact paths inside dir.
func (n FileNames) Paths(dir string) (merged, combined, audit string) {
	return filepath.Join(dir, n.Merged), filepath.Join(dir, n.Combined), filepath.Join(dir, n.Audit)
}

// Write replaces all artifacts in dir or none. On failure the previous
// artifacts are left in place and a WriteError is returned.
func (w *Writer) Write(dir string, names FileNames, a *Artifacts) error {
	merged, combined, audit := names.Paths(dir)
	err := w.committer.Commit([]fileutils.Artifact{
		{Path: merged, Data: a.Merged, Perm: models.PermissionReportFile},
		{Path: combined, Data: a.Combined, Perm: models.PermissionReportFile},
		{Path: audit, Data: a.Audit, Perm: models.PermissionReportFile},
	})
	if err != nil {
		w.logger.WithError(err).Error("Failed to write merge artifacts",
			logging.F(logging.FieldOutputFile, merged))
		return &mergeerror.WriteError{Path: dir, Err: err}
	}
	w.logger.Info("Wrote merge artifacts",
		logging.F(logging.FieldOutputFile, merged),
		logging.F("combined_file", combined),
		logging.F("audit_file", audit))
	return nil
}
