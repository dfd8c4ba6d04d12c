package models

// Match kinds a rule may declare.
const (
	MatchRegex     = "regex"
	MatchSubstring = "substring"
)

// CategoryRule is one entry of the rules document. Match defaults to regex.
type CategoryRule struct {
	Pattern  string `json:"pattern" yaml:"pattern"`
	Category string `json:"category" yaml:"category"`
	Match    string `json:"match,omitempty" yaml:"match,omitempty"`
}

// RulesDocument is the rules/vocabulary override document.
type RulesDocument struct {
	Rules      []CategoryRule `json:"rules" yaml:"rules"`
	Categories []string       `json:"categories" yaml:"categories"`
}

// Built-in category names.
const (
	CategoryWorkIncome   = "Work Income"
	CategoryTransfers    = "Transfers & Payments"
	CategoryShopping     = "Shopping & Groceries"
	CategoryFoodDrink    = "Food & Drink"
	CategoryRestaurants  = "Restaurants"
	CategoryTravel       = "Transport & Travel"
	CategorySubscription = "Subscriptions & Bills"
	CategoryUtilities    = "Utilities & Bills"
	CategoryEntertain    = "Entertainment"
	CategoryFees         = "Fees & Interest"
	CategoryHealth       = "Health"
	CategoryPharmacy     = "Pharmacy"
	CategoryPersonalCare = "Personal Care"
	CategoryGasAuto      = "Gas & Auto"
)

// DefaultCategories is the built-in vocabulary, in dropdown order.
func DefaultCategories() []string {
	return []string{
		CategoryWorkIncome, CategoryTransfers, CategoryShopping, CategoryFoodDrink,
		CategoryRestaurants, CategoryTravel, CategorySubscription, CategoryUtilities,
		CategoryEntertain, CategoryFees, CategoryHealth, CategoryPharmacy,
		CategoryPersonalCare, CategoryGasAuto, CategoryUncategorized,
	}
}

// DefaultRules is the built-in rule list. The last entry catches generic
// transfers the earlier patterns miss.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		{Pattern: `electronic funds transfer pay windreg|pay windreg|payroll`, Category: CategoryWorkIncome},
		{Pattern: `payment thank you|paiemen t merci|internet transfer 0{6,}|interac transfer|e-transfer|internet banking`, Category: CategoryTransfers},
		{Pattern: `rogers \*|rogers\*\*\*\*\*\*|apple\.com|cursor|paypal`, Category: CategorySubscription},
		{Pattern: `enwin|university of windsor|bill pay`, Category: CategoryUtilities},
		{Pattern: `tim hortons|starbucks|mcdonald|presotea|taco bell|subway|pizza pizza|chipotle|burger king|new york fries|dollarama|miniso`, Category: CategoryFoodDrink},
		{Pattern: `athidhi|janpath|spago|chilly bliss|paan banaras|restaurant`, Category: CategoryRestaurants},
		{Pattern: `instacart|costco|wal-mart|amazon|amzn|temu`, Category: CategoryShopping},
		{Pattern: `uber|lyft|vets cab|presto fare|pearson parking|michigan flyer|spirit air|air can`, Category: CategoryTravel},
		{Pattern: `sport chek|cinplex|vue`, Category: CategoryEntertain},
		{Pattern: `shell|gas|petrol`, Category: CategoryGasAuto},
		{Pattern: `interest|service charge|fee|branch transaction|automated banking machine`, Category: CategoryFees},
		{Pattern: `chiropractic`, Category: CategoryHealth},
		{Pattern: `shoppers drug|pharmacy`, Category: CategoryPharmacy},
		{Pattern: `sephora`, Category: CategoryPersonalCare},
		{Pattern: `e-transfer|internet transfer\s|interac\s+transfer`, Category: CategoryTransfers},
	}
}
