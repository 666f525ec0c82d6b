package custom

import (
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

type customCase struct {
	name    string
	value   any
	data    map[string]any
	want    bool
	wantErr bool
}

func runCases(t *testing.T, ev Evaluator, cases []customCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ev.EvaluateCustom(rules.RuleCondition{Type: rules.ConditionCustom, Value: tc.value}, tc.data)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil (result=%v)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("EvaluateCustom error: %v", err)
			}
			if got != tc.want {
				t.Errorf("EvaluateCustom(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestKeyEvaluator(t *testing.T) {
	runCases(t, KeyEvaluator{}, []customCase{
		{name: "truthy flag", value: "rush", data: map[string]any{"rush": true}, want: true},
		{name: "false flag", value: "rush", data: map[string]any{"rush": false}, want: false},
		{name: "missing key", value: "rush", data: map[string]any{}, want: false},
		{name: "non-string value", value: 42, data: map[string]any{}, wantErr: true},
	})
}

func TestExprEvaluator(t *testing.T) {
	runCases(t, NewExprEvaluator(), []customCase{
		{
			name:  "wholesale tier",
			value: `customData.channel == "wholesale" AND customData.tier in ["gold", "platinum"]`,
			data:  map[string]any{"channel": "wholesale", "tier": "gold"},
			want:  true,
		},
		{
			name:  "tier outside list",
			value: `customData.channel == "wholesale" AND customData.tier in ["gold", "platinum"]`,
			data:  map[string]any{"channel": "wholesale", "tier": "bronze"},
			want:  false,
		},
		{
			name:    "missing field errors",
			value:   `units > 5`,
			data:    map[string]any{},
			wantErr: true,
		},
		{
			name:    "syntax error",
			value:   `units >`,
			data:    map[string]any{"units": 1},
			wantErr: true,
		},
	})
}

func TestExprEvaluator_CachesParsedExpression(t *testing.T) {
	ev := NewExprEvaluator()
	if err := ev.Check(`a == 1`); err != nil {
		t.Fatal(err)
	}
	if _, ok := ev.cache.Load(`a == 1`); !ok {
		t.Fatal("expected expression to be cached after Check")
	}
}

func TestCELEvaluator(t *testing.T) {
	ev, err := NewCELEvaluator(0)
	if err != nil {
		t.Fatal(err)
	}
	runCases(t, ev, []customCase{
		{
			name:  "map access",
			value: `data.channel == "wholesale"`,
			data:  map[string]any{"channel": "wholesale"},
			want:  true,
		},
		{
			name:  "has macro on missing key",
			value: `has(data.rush) && data.rush == true`,
			data:  map[string]any{},
			want:  false,
		},
		{
			name:  "amount variable",
			value: `amount > 1000.0 && data.tier in ["gold", "platinum"]`,
			data:  map[string]any{"amount": 2500, "tier": "platinum"},
			want:  true,
		},
		{
			name:  "cross type comparison",
			value: `data.units > 50`,
			data:  map[string]any{"units": 75.0},
			want:  true,
		},
		{
			name:  "nil data",
			value: `quantity == 0.0`,
			data:  nil,
			want:  true,
		},
		{
			name:    "non-bool result",
			value:   `data.channel`,
			data:    map[string]any{"channel": "x"},
			wantErr: true,
		},
		{
			name:    "compile error",
			value:   `data.channel ==`,
			data:    map[string]any{},
			wantErr: true,
		},
	})
}

func TestCELEvaluator_RejectsLongExpression(t *testing.T) {
	ev, err := NewCELEvaluator(0)
	if err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("true && ", 200) + "true"
	if err := ev.Check(long); err == nil {
		t.Fatal("expected length error")
	}
}

func TestNew(t *testing.T) {
	for _, d := range append(Dialects, "") {
		if _, err := New(d); err != nil {
			t.Errorf("New(%q): %v", d, err)
		}
	}
	if _, err := New("lua"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}
