package batch

import (
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/textutils"
)

// VendorAliases rewrites noisy merchant descriptions ("AMZN MKTP CA*2K3")
// to a stable vendor name before categorization. The longest contained key wins.
type VendorAliases struct {
	index *textutils.SubstringIndex
}

// NewVendorAliases builds the alias table from key → replacement pairs.
func NewVendorAliases(aliases map[string]string) *VendorAliases {
	clean := make(map[string]string, len(aliases))
	for k, v := range aliases {
		if textutils.NormalizeDescription(v) != "" {
			clean[k] = textutils.NormalizeDescription(v)
		}
	}
	return &VendorAliases{index: textutils.NewSubstringIndex(clean)}
}

// Apply rewrites matching descriptions in place and returns how many changed.
func (a *VendorAliases) Apply(txs []models.Transaction) int {
	if a == nil || a.index.Len() == 0 {
		return 0
	}
	changed := 0
	for i := range txs {
		if _, alias, ok := a.index.Match(txs[i].Description); ok && alias != txs[i].Description {
			txs[i].Description = alias
			changed++
		}
	}
	return changed
}
