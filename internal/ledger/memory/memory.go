// Package memory is the in-process ledger backend: mutex-guarded slices
// and value copies, used as the default backend and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"finassist/internal/core"
	"finassist/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	goals        []core.Goal
	aiSettings   ledger.AISettings
	prefs        ledger.UserPreferences
	backups      []ledger.Backup
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		aiSettings: ledger.DefaultAISettings(),
		prefs:      ledger.DefaultPreferences(),
	}
}

// Append stores the transaction, newest first, assigning an ID when absent.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction{t}, s.transactions...)
	return t.ID, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *Store) ReplaceTransactions(_ context.Context, ts []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction(nil), ts...)
	return nil
}

func (s *Store) AddGoal(_ context.Context, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, g)
	return g.ID, nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.ID == id {
			return g, nil
		}
	}
	return core.Goal{}, ledger.ErrNotFound
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			s.goals[i] = g
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Goal, len(s.goals))
	copy(out, s.goals)
	return out, nil
}

func (s *Store) ReplaceGoals(_ context.Context, gs []core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append([]core.Goal(nil), gs...)
	return nil
}

func (s *Store) AISettings(_ context.Context) (ledger.AISettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiSettings, nil
}

func (s *Store) SaveAISettings(_ context.Context, set ledger.AISettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiSettings = set
	return nil
}

func (s *Store) Preferences(_ context.Context) (ledger.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs, nil
}

func (s *Store) SavePreferences(_ context.Context, p ledger.UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
	return nil
}

func (s *Store) AddBackup(_ context.Context, b ledger.Backup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backups = append([]ledger.Backup{b}, s.backups...)
	if len(s.backups) > ledger.MaxBackups {
		s.backups = s.backups[:ledger.MaxBackups]
	}
	return nil
}

func (s *Store) Backups(_ context.Context) ([]ledger.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Backup, len(s.backups))
	copy(out, s.backups)
	return out, nil
}
