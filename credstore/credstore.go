// Package credstore is the ambient Credential Store: an implementation
// of types.CredentialStore consulted by the Agent Runtime Adapter (C4)
// when it assembles a foundation-model client. The orchestration core
// runs as a single standalone process rather than behind a callback
// control plane, so this is grounded on the teacher SDK's LocalHarness
// credential handling — env-backed instead of stubbed, since here there
// genuinely is a local place to read the secret from.
package credstore

import (
	"context"
	"log/slog"
	"os"

	"github.com/graphmind/orchestrator/orcherr"
	"github.com/graphmind/orchestrator/types"
)

// EnvStore resolves named credentials from environment variables per a
// fixed name-to-env-var mapping, so request/config code never reads a
// secret's env var directly — it asks the store for a named credential
// instead.
type EnvStore struct {
	mapping map[string]string
	logger  *slog.Logger
}

// NewEnvStore builds an EnvStore. mapping associates a credential name
// (e.g. "anthropic") with the environment variable that holds its
// secret (e.g. "ANTHROPIC_API_KEY").
func NewEnvStore(mapping map[string]string, logger *slog.Logger) *EnvStore {
	return &EnvStore{mapping: mapping, logger: logger}
}

// GetCredential resolves name to its mapped environment variable. It
// returns orcherr.CodeNotRegistered if name has no mapping, and
// orcherr.CodeUnreachable if the mapped variable is unset or empty.
func (s *EnvStore) GetCredential(ctx context.Context, name string) (*types.Credential, error) {
	envVar, ok := s.mapping[name]
	if !ok {
		s.logger.Warn("credential requested with no env mapping", "name", name)
		return nil, orcherr.New(orcherr.CodeNotRegistered, "unknown credential: "+name).WithComponent("credstore")
	}
	secret := os.Getenv(envVar)
	if secret == "" {
		return nil, orcherr.New(orcherr.CodeUnreachable, "credential not configured: "+name).WithComponent("credstore")
	}
	return &types.Credential{Name: name, Type: types.CredentialTypeAPIKey, Secret: secret}, nil
}
