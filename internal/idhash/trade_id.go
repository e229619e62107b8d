// Package idhash computes deterministic identifiers so that re-running
// consolidation against the same execution log yields the same ids.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeTradeID computes a deterministic trade id using SHA256.
// Formula: SHA256(user_id|instrument_id|opening_execution_id|executed_at_unix_ms)
// Returns hex-encoded hash (64 characters).
//
// The opening execution uniquely identifies a trade: a trade is created by
// exactly one execution, and an execution opens at most one trade.
func ComputeTradeID(userID, instrumentID, openingExecutionID int64, executedAt time.Time) string {
	data := fmt.Sprintf("%d|%d|%d|%d",
		userID,
		instrumentID,
		openingExecutionID,
		executedAt.UTC().UnixMilli(),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
