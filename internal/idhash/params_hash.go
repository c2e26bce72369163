package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"token-demand-lab/internal/domain"
)

// ComputeParamsHash computes a deterministic hash of a parameter bundle.
// Formula: SHA256(json(params))
// encoding/json sorts map keys, so burn schedules hash stably.
func ComputeParamsHash(params domain.SimulationParameters) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
