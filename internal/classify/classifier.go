// Package classify maps tokenized statement labels to operation types with
// ordered keyword rules.
package classify

import "github.com/dvloznov/bank-portal-sync/internal/domain"

// Rule maps a keyword set to an operation type and category.
type Rule struct {
	Keywords   []string
	Type       domain.OperationType
	CategoryID string
	Confidence float64 // 0 means the default confidence of 1
}

// Result is the outcome of classifying one label.
type Result struct {
	Type       domain.OperationType
	CategoryID string // empty when unclassified
	Confidence float64
}

// Unclassified is returned when no rule matches.
var Unclassified = Result{Type: domain.OpNone}

// Matched reports whether a rule produced the result.
func (r Result) Matched() bool {
	return r.Type != domain.OpNone
}

// Match returns the first rule whose keywords are all among tokens.
func Match(rules []Rule, tokens []string) Result {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}

	for _, rule := range rules {
		if len(rule.Keywords) == 0 || !containsAll(set, rule.Keywords) {
			continue
		}
		confidence := rule.Confidence
		if confidence == 0 {
			confidence = defaultRuleConfidence
		}
		return Result{Type: rule.Type, CategoryID: rule.CategoryID, Confidence: confidence}
	}
	return Unclassified
}

func containsAll(set map[string]struct{}, keywords []string) bool {
	for _, k := range keywords {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}

// Classifier holds the debit and credit rule tables.
type Classifier struct {
	debit  []Rule
	credit []Rule
}

// New returns a classifier over the given tables.
func New(debit, credit []Rule) *Classifier {
	return &Classifier{debit: debit, credit: credit}
}

// Default returns a classifier over DebitRules and CreditRules.
func Default() *Classifier {
	return New(DebitRules, CreditRules)
}

// ClassifyDebit classifies a debit line.
func (c *Classifier) ClassifyDebit(tokens []string) Result {
	return Match(c.debit, tokens)
}

// ClassifyCredit classifies a credit line.
func (c *Classifier) ClassifyCredit(tokens []string) Result {
	return Match(c.credit, tokens)
}
