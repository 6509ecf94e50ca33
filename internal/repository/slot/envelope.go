package slot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// Version is the schema version written into every envelope.
const Version = 0

// ErrCorrupt marks a slot whose payload cannot be decoded.
var ErrCorrupt = errors.New("corrupt slot")

type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Read decodes the state of slot key into dst. It reports false when the
// slot does not exist.
func Read(ctx context.Context, repo Repository, key string, dst any) (bool, error) {
	raw, err := repo.Load(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load slot %s: %w", key, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("%w %s: %v", ErrCorrupt, key, err)
	}
	if len(env.State) == 0 || string(env.State) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(env.State, dst); err != nil {
		return false, fmt.Errorf("%w %s state: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// Write stores state into slot key wrapped in {state, version}.
func Write(ctx context.Context, repo Repository, key string, state any) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", key, err)
	}
	payload, err := json.Marshal(envelope{State: stateJSON, Version: Version})
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", key, err)
	}
	if err := repo.Save(ctx, key, payload); err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}
