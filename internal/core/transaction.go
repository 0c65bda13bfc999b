package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Transaction is a single recorded income or expense event. Immutable
	// once created; the only mutation a store supports is deletion.
	Transaction struct {
		ID          string          `json:"id"`
		Timestamp   time.Time       `json:"timestamp"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
	}

	// AIAnalysis is the output contract both the local rule engine and the
	// remote AI path must satisfy.
	AIAnalysis struct {
		Story      string   `json:"story"`
		Tips       []string `json:"tips"`
		Insight    string   `json:"insight"`
		Motivation string   `json:"motivation"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// IsExpense reports whether the transaction counts toward spending.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

// PeriodKey returns the calendar year-month bucket ("2025-03") used for
// trend grouping.
func (t Transaction) PeriodKey() string {
	return t.Timestamp.Format("2006-01")
}
