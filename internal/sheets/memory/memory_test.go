package memory

import (
	"context"
	"testing"
	"time"

	"finassist/internal/core"
)

func TestAppendAndRows(t *testing.T) {
	m := New()
	tx := core.Transaction{
		ID:        "t1",
		Timestamp: time.Now(),
		Type:      core.Expense,
		Amount:    core.Money{Cents: 1000},
		Category:  "food",
	}

	ref, err := m.Append(context.Background(), tx)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "row-1" {
		t.Errorf("ref = %s, want row-1", ref)
	}

	rows := m.Rows()
	if len(rows) != 1 || rows[0].ID != "t1" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestFailNext(t *testing.T) {
	m := New()
	m.FailNext = true

	if _, err := m.Append(context.Background(), core.Transaction{ID: "t1"}); err == nil {
		t.Fatal("Append should fail once")
	}
	if _, err := m.Append(context.Background(), core.Transaction{ID: "t2"}); err != nil {
		t.Fatalf("second Append: %v", err)
	}
	if len(m.Rows()) != 1 {
		t.Errorf("rows = %d, want 1", len(m.Rows()))
	}
}
