package stats

import "strings"

// Reason buckets. Free-text selection reasons collapse into this fixed
// taxonomy; labels match the dashboard's Korean display strings.
const (
	ReasonDisclosure   = "공시 관련"
	ReasonAISemi       = "AI·반도체 테마"
	ReasonDefense      = "방산 테마"
	ReasonNewsPositive = "뉴스 (긍정)"
	ReasonNewsNeutral  = "뉴스 (중립)"
	ReasonNews         = "뉴스 관련"
	ReasonOther        = "기타"
)

// reasonRule is one (predicate, category) entry. Rules are evaluated
// top-to-bottom and the first match wins, so a reason containing both
// "공시" and "AI" always classifies as disclosure. That priority is part
// of the contract; do not reorder.
type reasonRule struct {
	match    func(s string) bool
	category string
}

func contains(substr string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, substr) }
}

func containsAny(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

func containsAll(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if !strings.Contains(s, sub) {
				return false
			}
		}
		return true
	}
}

var reasonRules = []reasonRule{
	{contains("공시"), ReasonDisclosure},
	{containsAny("ai", "반도체"), ReasonAISemi},
	{contains("방산"), ReasonDefense},
	// Positive/neutral sub-matching applies only inside the news branch.
	{containsAll("뉴스", "긍정"), ReasonNewsPositive},
	{containsAll("뉴스", "중립"), ReasonNewsNeutral},
	{contains("뉴스"), ReasonNews},
}

// NormalizeReason canonicalizes a free-text selection reason via
// case-insensitive substring matching into the fixed taxonomy.
func NormalizeReason(reason string) string {
	if reason == "" {
		return ReasonOther
	}

	normalized := strings.ToLower(reason)
	for _, rule := range reasonRules {
		if rule.match(normalized) {
			return rule.category
		}
	}
	return ReasonOther
}
