package categorizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/textutils"
)

// CompiledRule is a validated rule ready for matching.
type CompiledRule struct {
	Index    int
	Pattern  string
	Category string
	Match    string

	re     *regexp.Regexp
	folded string
}

// Matches reports whether the rule applies to description.
func (r CompiledRule) Matches(description string) bool {
	if r.re != nil {
		return r.re.MatchString(description)
	}
	return strings.Contains(textutils.Fold(description), r.folded)
}

// CompileRules validates rules in declaration order. Every category must
// belong to vocab. Failures are ConfigErrors naming document and the
// offending rule's index.
func CompileRules(document string, rules []models.CategoryRule, vocab *models.Vocabulary) ([]CompiledRule, error) {
	compiled := make([]CompiledRule, 0, len(rules))
	for i, rule := range rules {
		fail := func(reason string, err error) error {
			return &mergeerror.ConfigError{Document: document, Reason: fmt.Sprintf("rule %d: %s", i, reason), Err: err}
		}

		pattern := strings.TrimSpace(rule.Pattern)
		category := strings.TrimSpace(rule.Category)
		if pattern == "" {
			return nil, fail("empty pattern", nil)
		}
		if category == "" {
			return nil, fail("empty category", nil)
		}
		if vocab != nil && !vocab.Contains(category) {
			return nil, fail(fmt.Sprintf("category %q is not in the vocabulary", category), nil)
		}

		cr := CompiledRule{Index: i, Pattern: pattern, Category: category, Match: rule.Match}
		switch strings.ToLower(strings.TrimSpace(rule.Match)) {
		case "", models.MatchRegex:
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fail("invalid regular expression", err)
			}
			cr.Match = models.MatchRegex
			cr.re = re
		case models.MatchSubstring:
			cr.Match = models.MatchSubstring
			cr.folded = textutils.Fold(pattern)
		default:
			return nil, fail(fmt.Sprintf("unknown match kind %q", rule.Match), nil)
		}
		compiled = append(compiled, cr)
	}
	return compiled, nil
}

// RuleStrategy categorizes with the first matching rule.
type RuleStrategy struct {
	rules  []CompiledRule
	logger logging.Logger
}

// NewRuleStrategy creates a RuleStrategy over compiled rules.
func NewRuleStrategy(rules []CompiledRule, logger logging.Logger) *RuleStrategy {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &RuleStrategy{rules: rules, logger: logger}
}

// Name returns the name of this strategy for logging.
func (s *RuleStrategy) Name() string { return "Rule" }

// Stage returns models.StageRule.
func (s *RuleStrategy) Stage() models.Stage { return models.StageRule }

// Categorize returns the category of the first rule matching the description.
func (s *RuleStrategy) Categorize(_ context.Context, tx models.Transaction) (models.Category, bool, error) {
	for _, r := range s.rules {
		if !r.Matches(tx.Description) {
			continue
		}
		s.logger.Debug("Transaction matched rule",
			logging.F(logging.FieldDescription, tx.Description),
			logging.F("rule", r.Index),
			logging.F(logging.FieldCategory, r.Category))
		return models.Category{Name: r.Category, Confidence: 1, Detail: r.Pattern}, true, nil
	}
	return models.Category{}, false, nil
}
