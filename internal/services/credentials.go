package services

import (
	"context"
	"fmt"

	"finassist/internal/ai"
	"finassist/internal/ledger"
)

// CredentialResolver assembles the AI credential snapshot for each call:
// the shared key from the environment plus the user key from stored
// settings. A disabled toggle drops the user key so the chain can only
// use the shared route or the local engine.
type CredentialResolver struct {
	SharedProvider string
	SharedKey      string
	Settings       ledger.SettingsStore
}

var _ ai.CredentialSource = (*CredentialResolver)(nil)

func (r *CredentialResolver) Credentials(ctx context.Context) (ai.Credentials, error) {
	creds := ai.Credentials{
		SharedProvider: r.SharedProvider,
		SharedKey:      r.SharedKey,
	}
	if r.Settings == nil {
		return creds, nil
	}
	settings, err := r.Settings.AISettings(ctx)
	if err != nil {
		return ai.Credentials{}, fmt.Errorf("load AI settings: %w", err)
	}
	if settings.Enabled {
		creds.UserProvider = settings.Provider
		creds.UserKey = settings.APIKey
	}
	return creds, nil
}
