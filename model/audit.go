// File: model/audit.go
package model

import "time"

// FlaggedBatch is an append-only audit record raised by a regulator against an
// external batch reference. Lifecycle: flagged -> resolved (terminal). Records
// are never deleted and flag ids reflect raise order exactly.
type FlaggedBatch struct {
	ObjectType     string    `json:"objectType"` // Set to the composite key object type (FlaggedBatch)
	ID             uint64    `json:"id"`
	BatchRef       uint64    `json:"batchRef"` // Caller-supplied external batch identifier, non-zero
	RaisedByUserID uint64    `json:"raisedByUserId"`
	Reason         string    `json:"reason"`
	RaisedAt       time.Time `json:"raisedAt"`
	Resolved       bool      `json:"resolved"`
}
