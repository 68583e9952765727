package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// Object types for composite keys, also usable as 'docType' in CouchDB.
const (
	roleObjectType         = "Role"         // Role records. Attribute: zero-padded role id.
	roleBindingObjectType  = "RoleBinding"  // Maps a well-known role name to its role id.
	userObjectType         = "User"         // User records. Attribute: principal.
	adminFlagObjectType    = "AdminFlag"    // Admin-set membership flag. Attribute: principal.
	flaggedBatchObjectType = "FlaggedBatch" // FlaggedBatch records. Attribute: zero-padded flag id.
	counterObjectType      = "Counter"      // Monotonic id counters. Attribute: entity name.
)

// Counter names. Each entity type allocates ids independently.
const (
	roleCounterName = "role"
	userCounterName = "user"
	flagCounterName = "flag"
)

// Constants for input validation and limits.
const (
	maxStringInputLength = 256
	maxReasonLength      = 512
)

// padID renders a sequential id as a fixed-width decimal so that composite-key
// range scans return records in allocation order.
func padID(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

// getCurrentTxTimestamp retrieves the current transaction timestamp from the stub.
func getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

// nextSequence allocates the next id for the named counter. Counters start at 1
// and only ever move forward; Fabric's read/write-set validation serializes
// concurrent allocations of the same counter.
func nextSequence(ctx contractapi.TransactionContextInterface, name string) (uint64, error) {
	counterKey, err := ctx.GetStub().CreateCompositeKey(counterObjectType, []string{name})
	if err != nil {
		return 0, fmt.Errorf("failed to create counter key for '%s': %w", name, err)
	}
	last := uint64(0)
	counterBytes, err := ctx.GetStub().GetState(counterKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read counter '%s': %w", name, err)
	}
	if counterBytes != nil {
		last, err = strconv.ParseUint(string(counterBytes), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt counter state for '%s': %w", name, err)
		}
	}
	next := last + 1
	if err := ctx.GetStub().PutState(counterKey, []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, fmt.Errorf("failed to advance counter '%s': %w", name, err)
	}
	return next, nil
}

// --- Validation Helper Functions ---

func validateOptionalString(input, field string, max int) error {
	if input != "" && len(input) > max {
		return fmt.Errorf("%s exceeds max length %d", field, max)
	}
	return nil
}

// emitRegistryEvent sends a chaincode event carrying the operation name and its
// key arguments. Events are only delivered for committed transactions, so a
// rejected operation never surfaces one.
func emitRegistryEvent(ctx contractapi.TransactionContextInterface, eventName string, payload map[string]interface{}) {
	for k, v := range payload {
		if t, ok := v.(time.Time); ok {
			payload[k] = t.Format(time.RFC3339)
		}
	}
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Warningf("emitRegistryEvent: failed to marshal payload for event '%s': %v", eventName, err)
		return
	}
	if errSet := ctx.GetStub().SetEvent(eventName, eventBytes); errSet != nil {
		logger.Warningf("emitRegistryEvent: failed to set event '%s': %v", eventName, errSet)
	}
}

// normalizeRoleName lowercases and trims a role name for well-known-name binding
// lookups. Stored role names stay verbatim.
func normalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
