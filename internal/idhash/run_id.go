package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"token-demand-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(batch_id|model|params_hash|label)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	batchID string,
	model domain.ModelTag,
	paramsHash string,
	label string,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		batchID,
		string(model),
		paramsHash,
		label,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
