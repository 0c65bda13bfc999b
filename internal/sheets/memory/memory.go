// Package memory is an in-process TransactionMirror for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finassist/internal/core"
	"finassist/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows []core.Transaction

	// FailNext makes the next Append fail, for retry-path tests.
	FailNext bool
}

var _ sheets.TransactionMirror = (*Mirror)(nil)

func New() *Mirror { return &Mirror{} }

func (m *Mirror) Append(_ context.Context, t core.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return "", fmt.Errorf("mirror unavailable")
	}
	m.rows = append(m.rows, t)
	return fmt.Sprintf("row-%d", len(m.rows)), nil
}

func (m *Mirror) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, len(m.rows))
	copy(out, m.rows)
	return out
}
