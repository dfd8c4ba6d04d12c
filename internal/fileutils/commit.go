package fileutils

import (
	"errors"
	"fmt"
	"os"
)

// Artifact is one file of a set that must be replaced together.
type Artifact struct {
	Path string
	Data []byte
	Perm os.FileMode
}

// Committer replaces a set of files so that either every file carries the
// new content or every file keeps its previous content (or stays absent).
type Committer struct {
	rename func(oldpath, newpath string) error
}

// NewCommitter returns a Committer using os.Rename.
func NewCommitter() *Committer {
	return &Committer{rename: os.Rename}
}

// NewCommitterWithRename lets tests inject rename failures.
func NewCommitterWithRename(rename func(oldpath, newpath string) error) *Committer {
	return &Committer{rename: rename}
}

type staged struct {
	target  string
	tmp     string
	aside   string // previous content moved out of the way, "" if target was absent
	swapped bool
}

// Commit writes every artifact to a temporary file first and only then swaps
// them in. Any failure restores the previous files and removes the temporaries.
func (c *Committer) Commit(artifacts []Artifact) error {
	steps := make([]*staged, 0, len(artifacts))
	cleanup := func() {
		for _, s := range steps {
			if s.tmp != "" {
				_ = os.Remove(s.tmp)
			}
		}
	}

	for _, a := range artifacts {
		tmp, err := writeTemp(a.Path, a.Data, a.Perm)
		if err != nil {
			cleanup()
			return err
		}
		steps = append(steps, &staged{target: a.Path, tmp: tmp})
	}

	for _, s := range steps {
		if FileExists(s.target) {
			s.aside = s.tmp + ".prev"
			if err := c.rename(s.target, s.aside); err != nil {
				s.aside = ""
				return c.rollback(steps, fmt.Errorf("failed to move aside %s: %w", s.target, err))
			}
		}
		if err := c.rename(s.tmp, s.target); err != nil {
			return c.rollback(steps, fmt.Errorf("failed to replace %s: %w", s.target, err))
		}
		s.tmp = ""
		s.swapped = true
	}

	for _, s := range steps {
		if s.aside != "" {
			_ = os.Remove(s.aside)
		}
	}
	return nil
}

func (c *Committer) rollback(steps []*staged, cause error) error {
	errs := []error{cause}
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if s.swapped {
			if err := os.Remove(s.target); err != nil && !os.IsNotExist(err) {
				errs = append(errs, err)
			}
		}
		if s.aside != "" {
			if err := c.rename(s.aside, s.target); err != nil {
				errs = append(errs, fmt.Errorf("failed to restore %s: %w", s.target, err))
			}
		}
		if s.tmp != "" {
			_ = os.Remove(s.tmp)
		}
	}
	return errors.Join(errs...)
}
