package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole number", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "12.3", want: 1230},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "third decimal rounds up", input: "1.005", want: 101},
		{name: "third decimal rounds down", input: "1.004", want: 100},
		{name: "leading dot", input: ".50", want: 50},
		{name: "whitespace trimmed", input: " 7.25 ", want: 725},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "plus sign", input: "+5", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "zero decimal", input: "0.00", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyFormat(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  string
	}{
		{name: "rounds down", cents: 123449, want: "₹1234"},
		{name: "rounds up", cents: 123450, want: "₹1235"},
		{name: "exact", cents: 100000, want: "₹1000"},
		{name: "zero", cents: 0, want: "₹0"},
		{name: "negative", cents: -50000, want: "-₹500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Money{Cents: tt.cents}).Format("₹"); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.cents, got, tt.want)
			}
		})
	}
}

func TestMoneyFormatExact(t *testing.T) {
	if got := (Money{Cents: 1234}).FormatExact("₹"); got != "₹12.34" {
		t.Errorf("FormatExact = %q, want ₹12.34", got)
	}
	if got := (Money{Cents: -105}).FormatExact("₹"); got != "-₹1.05" {
		t.Errorf("FormatExact = %q, want -₹1.05", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Timestamp: time.Now(),
		Type:      Expense,
		Amount:    Money{Cents: 1500},
		Category:  "food",
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{name: "valid", mutate: func(*Transaction) {}},
		{name: "bad type", mutate: func(tr *Transaction) { tr.Type = "transfer" }, wantErr: ErrInvalidType},
		{name: "zero amount", mutate: func(tr *Transaction) { tr.Amount = Money{} }, wantErr: ErrInvalidAmount},
		{name: "negative amount", mutate: func(tr *Transaction) { tr.Amount = Money{Cents: -100} }, wantErr: ErrInvalidAmount},
		{name: "blank category", mutate: func(tr *Transaction) { tr.Category = "  " }, wantErr: ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			err := tr.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoalContributeClampsAtTarget(t *testing.T) {
	g := Goal{
		Name:   "Emergency fund",
		Target: Money{Cents: 10000 * 100},
	}

	g = g.Contribute(Money{Cents: 1000 * 100})
	g = g.Contribute(Money{Cents: 5000 * 100})
	if g.Reached() {
		t.Fatal("goal reported reached at 6000/10000")
	}

	g = g.Contribute(Money{Cents: 6000 * 100})
	if g.CurrentAmount.Cents != 10000*100 {
		t.Errorf("CurrentAmount = %d, want clamp at %d", g.CurrentAmount.Cents, 10000*100)
	}
	if !g.Reached() {
		t.Error("goal not reported reached after clamping at target")
	}

	// Further contributions stay clamped.
	g = g.Contribute(Money{Cents: 100})
	if g.CurrentAmount.Cents != 10000*100 {
		t.Errorf("CurrentAmount after extra contribution = %d, want %d", g.CurrentAmount.Cents, 10000*100)
	}
}

func TestGoalContributeIgnoresNonPositive(t *testing.T) {
	g := Goal{Target: Money{Cents: 1000}, CurrentAmount: Money{Cents: 500}}
	if got := g.Contribute(Money{Cents: 0}); got.CurrentAmount.Cents != 500 {
		t.Errorf("zero contribution changed progress to %d", got.CurrentAmount.Cents)
	}
	if got := g.Contribute(Money{Cents: -100}); got.CurrentAmount.Cents != 500 {
		t.Errorf("negative contribution changed progress to %d", got.CurrentAmount.Cents)
	}
}

func TestGoalOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	g := Goal{
		Name:     "Trip",
		Target:   Money{Cents: 1000},
		Deadline: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	if !g.Overdue(now) {
		t.Error("goal past deadline not reported overdue")
	}

	reached := g.Contribute(Money{Cents: 1000})
	if reached.Overdue(now) {
		t.Error("reached goal reported overdue")
	}

	future := g
	future.Deadline = now.AddDate(0, 1, 0)
	if future.Overdue(now) {
		t.Error("goal before deadline reported overdue")
	}
}

func TestGoalValidate(t *testing.T) {
	g := Goal{Name: "Fund", Target: Money{Cents: 1000}}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	noName := g
	noName.Name = " "
	if err := noName.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Validate() = %v, want %v", err, ErrEmptyName)
	}

	noTarget := g
	noTarget.Target = Money{}
	if err := noTarget.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidAmount)
	}
}

func TestCategoryByKeyFallsBackToOther(t *testing.T) {
	if got := CategoryByKey("food"); got.Key != "food" {
		t.Errorf("CategoryByKey(food) = %q", got.Key)
	}
	if got := CategoryByKey("unknown-category"); got.Key != "other" {
		t.Errorf("CategoryByKey(unknown) = %q, want other", got.Key)
	}
}

func TestPeriodKey(t *testing.T) {
	tr := Transaction{Timestamp: time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)}
	if got := tr.PeriodKey(); got != "2025-03" {
		t.Errorf("PeriodKey() = %q, want 2025-03", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{49999, "499.99"},
		{100, "1.00"},
		{0, "0.00"},
		{-150, "-1.50"},
	}
	for _, tt := range tests {
		raw, err := json.Marshal(Money{Cents: tt.cents})
		if err != nil {
			t.Fatalf("Marshal(%d): %v", tt.cents, err)
		}
		if string(raw) != tt.want {
			t.Errorf("Marshal(%d) = %s, want %s", tt.cents, raw, tt.want)
		}

		var back Money
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", raw, err)
		}
		if back.Cents != tt.cents {
			t.Errorf("round trip of %d cents gave %d", tt.cents, back.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"12.34"`), &m); err != nil || m.Cents != 1234 {
		t.Errorf("Unmarshal string form = %d, %v; want 1234, nil", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &m); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Unmarshal(abc) = %v, want %v", err, ErrInvalidAmount)
	}
}
