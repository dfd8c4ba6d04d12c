package models

import "fmt"

// Stage records which waterfall step produced a transaction's category.
type Stage string

const (
	StageMapping Stage = "mapping"
	StageRule    Stage = "rule"
	StageML      Stage = "ml"
	StageNone    Stage = "none"
)

// Stages lists every stage in waterfall order.
var Stages = []Stage{StageMapping, StageRule, StageML, StageNone}

// ParseStage converts a stored stage name back into a Stage.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown categorization stage %q", s)
}

// StageCounts sums how many transactions each stage categorized.
type StageCounts struct {
	Mapping         int
	Rule            int
	ML              int
	Uncategorized   int
	OutOfVocabulary int // stage results rejected because the label is not in the vocabulary
}

// Add counts one transaction for st.
func (c *StageCounts) Add(st Stage) {
	switch st {
	case StageMapping:
		c.Mapping++
	case StageRule:
		c.Rule++
	case StageML:
		c.ML++
	default:
		c.Uncategorized++
	}
}

// Total is the number of transactions counted.
func (c StageCounts) Total() int {
	return c.Mapping + c.Rule + c.ML + c.Uncategorized
}

// Summary renders the line the shell shows after a run.
func (c StageCounts) Summary() string {
	return fmt.Sprintf("Categorized %d rows via Mapping, %d via Regex, and %d via ML.", c.Mapping, c.Rule, c.ML)
}
