package forms

import "testing"

func TestEvaluatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		met      int
		percent  int
		label    string
		strong   bool
	}{
		{"empty", "", 0, 0, "Very Weak", false},
		{"lowercase only", "abc", 1, 20, "Very Weak", false},
		{"lower and upper", "aB", 2, 40, "Weak", false},
		{"lower upper digit", "aB3", 3, 60, "Fair", false},
		{"missing symbol", "Abcdefg1", 4, 80, "Good", false},
		{"all rules", "Abcdef1!", 5, 100, "Strong", true},
		{"long but plain", "abcdefghijkl", 2, 40, "Weak", false},
		{"symbol from set", `Secret123"`, 5, 100, "Strong", true},
		{"symbol outside set", "Secret123~", 4, 80, "Good", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := EvaluatePassword(tt.password)
			met := 0
			for _, req := range r.Requirements {
				if req.Met {
					met++
				}
			}
			if met != tt.met {
				t.Errorf("met rules = %d, want %d (%+v)", met, tt.met, r.Requirements)
			}
			if r.StrengthPercent != tt.percent {
				t.Errorf("percent = %d, want %d", r.StrengthPercent, tt.percent)
			}
			if r.Label != tt.label {
				t.Errorf("label = %q, want %q", r.Label, tt.label)
			}
			if r.IsStrong != tt.strong {
				t.Errorf("strong = %v, want %v", r.IsStrong, tt.strong)
			}
		})
	}
}

func TestEvaluatePassword_RequirementOrder(t *testing.T) {
	r := EvaluatePassword("abc")
	if len(r.Requirements) != 5 {
		t.Fatalf("expected 5 requirements, got %d", len(r.Requirements))
	}
	want := []bool{false, false, true, false, false}
	for i, req := range r.Requirements {
		if req.Met != want[i] {
			t.Errorf("requirement %d (%s) met = %v, want %v", i, req.Text, req.Met, want[i])
		}
	}
}

// Adding characters that satisfy a new rule never lowers the score.
func TestEvaluatePassword_Monotonic(t *testing.T) {
	steps := []string{"a", "aB", "aB3", "aB3!", "aB3!xyzw"}
	prev := -1
	for _, pw := range steps {
		r := EvaluatePassword(pw)
		if r.StrengthPercent < prev {
			t.Fatalf("strength dropped from %d to %d at %q", prev, r.StrengthPercent, pw)
		}
		prev = r.StrengthPercent
	}
	if prev != 100 {
		t.Fatalf("expected final password to be strong, got %d", prev)
	}
}

// Strength depends on which rules hold, not on the order characters appear.
func TestEvaluatePassword_OrderIndependent(t *testing.T) {
	for _, pw := range []string{"Abcdef1!", "!1fedcbA", "1!Abcdef", "ab!CD12x"} {
		if !EvaluatePassword(pw).IsStrong {
			t.Errorf("expected %q to be strong", pw)
		}
	}
}
