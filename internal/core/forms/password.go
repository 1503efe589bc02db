package forms

import (
	"regexp"
	"unicode/utf8"
)

// PasswordSymbols is the punctuation set accepted by the symbol rule.
const PasswordSymbols = `!@#$%^&*(),.?":{}|<>`

const minPasswordLength = 8

// Requirement is one line of the strength checklist.
type Requirement struct {
	Text string
	Met  bool
}

// PasswordStrengthReport is recomputed from scratch on every keystroke.
type PasswordStrengthReport struct {
	Requirements    []Requirement
	StrengthPercent int
	Label           string
	IsStrong        bool
}

var (
	upperRe  = regexp.MustCompile(`[A-Z]`)
	lowerRe  = regexp.MustCompile(`[a-z]`)
	digitRe  = regexp.MustCompile(`[0-9]`)
	symbolRe = regexp.MustCompile(`[` + regexp.QuoteMeta(PasswordSymbols) + `]`)
)

var passwordRules = []struct {
	text string
	met  func(string) bool
}{
	{"At least 8 characters", func(pw string) bool { return utf8.RuneCountInString(pw) >= minPasswordLength }},
	{"One uppercase letter", upperRe.MatchString},
	{"One lowercase letter", lowerRe.MatchString},
	{"One number", digitRe.MatchString},
	{"One special character (" + PasswordSymbols + ")", symbolRe.MatchString},
}

// EvaluatePassword scores pw against the five rules. Each satisfied rule is
// worth 20%; only all five make a password strong.
func EvaluatePassword(pw string) PasswordStrengthReport {
	reqs := make([]Requirement, len(passwordRules))
	met := 0
	for i, rule := range passwordRules {
		ok := rule.met(pw)
		reqs[i] = Requirement{Text: rule.text, Met: ok}
		if ok {
			met++
		}
	}

	percent := met * 100 / len(passwordRules)
	return PasswordStrengthReport{
		Requirements:    reqs,
		StrengthPercent: percent,
		Label:           strengthLabel(percent),
		IsStrong:        met == len(passwordRules),
	}
}

// strengthLabel buckets are inclusive at the top, so 20% (one rule) is
// "Very Weak" and only 100% is "Strong".
func strengthLabel(percent int) string {
	switch {
	case percent <= 20:
		return "Very Weak"
	case percent <= 40:
		return "Weak"
	case percent <= 60:
		return "Fair"
	case percent <= 80:
		return "Good"
	default:
		return "Strong"
	}
}
