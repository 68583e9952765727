package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"rxtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Batch Audit Operations ---
//
// FlaggedBatch state machine: Flagged --resolve--> Resolved (terminal). Records
// are append-only; resolution authority is role-based, not raiser-based.

// FlagBatch raises an audit flag against an external batch reference. Caller
// must be a registered user holding the regulator role.
func (s *RxtraceSmartContract) FlagBatch(ctx contractapi.TransactionContextInterface, batchRef uint64, reason string) (uint64, error) {
	rm := NewRegistryManager(ctx)
	caller, err := rm.GetCallerPrincipal()
	if err != nil {
		return 0, fmt.Errorf("FlagBatch: failed to resolve caller principal: %w", err)
	}

	raiser, err := rm.getUserRecord(caller)
	if err != nil {
		return 0, err
	}
	if raiser == nil || !raiser.Exists {
		return 0, fmt.Errorf("FlagBatch: caller '%s': %w", caller, ErrNotRegistered)
	}
	isRegulator, err := rm.HasWellKnownRole(caller, model.RoleNameRegulator)
	if err != nil {
		return 0, err
	}
	if !isRegulator {
		return 0, fmt.Errorf("FlagBatch: caller '%s' does not hold the regulator role: %w", caller, ErrNotAuthorized)
	}

	if batchRef == 0 {
		return 0, fmt.Errorf("FlagBatch: %w", ErrInvalidBatchRef)
	}
	if strings.TrimSpace(reason) == "" {
		return 0, fmt.Errorf("FlagBatch: %w", ErrEmptyReason)
	}
	if err := validateOptionalString(reason, "reason", maxReasonLength); err != nil {
		return 0, err
	}

	now, err := getCurrentTxTimestamp(ctx)
	if err != nil {
		return 0, fmt.Errorf("FlagBatch: failed to get transaction timestamp: %w", err)
	}
	flagID, err := nextSequence(ctx, flagCounterName)
	if err != nil {
		return 0, err
	}
	flagged := model.FlaggedBatch{
		ObjectType:     flaggedBatchObjectType,
		ID:             flagID,
		BatchRef:       batchRef,
		RaisedByUserID: raiser.ID,
		Reason:         reason,
		RaisedAt:       now,
		Resolved:       false,
	}
	if err := s.putFlaggedBatch(ctx, &flagged); err != nil {
		return 0, err
	}

	emitRegistryEvent(ctx, "BatchFlagged", map[string]interface{}{
		"flagId":         flagID,
		"batchRef":       batchRef,
		"raisedByUserId": raiser.ID,
		"reason":         reason,
	})
	logger.Infof("Batch ref %d flagged as flag %d by regulator user %d ('%s')", batchRef, flagID, raiser.ID, caller)
	return flagID, nil
}

// ResolveBatch moves a flagged batch to its terminal resolved state. Any
// regulator may resolve a flag raised by a different regulator.
func (s *RxtraceSmartContract) ResolveBatch(ctx contractapi.TransactionContextInterface, flagID uint64) error {
	rm := NewRegistryManager(ctx)
	caller, err := rm.GetCallerPrincipal()
	if err != nil {
		return fmt.Errorf("ResolveBatch: failed to resolve caller principal: %w", err)
	}
	isRegulator, err := rm.HasWellKnownRole(caller, model.RoleNameRegulator)
	if err != nil {
		return err
	}
	if !isRegulator {
		return fmt.Errorf("ResolveBatch: caller '%s' does not hold the regulator role: %w", caller, ErrNotAuthorized)
	}

	flagged, err := s.getFlaggedBatchByID(ctx, flagID)
	if err != nil {
		return fmt.Errorf("ResolveBatch: %w", err)
	}
	if flagged.Resolved {
		return fmt.Errorf("ResolveBatch: flag %d: %w", flagID, ErrAlreadyResolved)
	}

	resolver, err := rm.getLiveUser(caller)
	if err != nil {
		return fmt.Errorf("ResolveBatch: %w", err)
	}
	flagged.Resolved = true
	if err := s.putFlaggedBatch(ctx, flagged); err != nil {
		return err
	}

	emitRegistryEvent(ctx, "BatchResolved", map[string]interface{}{
		"flagId":          flagID,
		"batchRef":        flagged.BatchRef,
		"resolvingUserId": resolver.ID,
	})
	logger.Infof("Flag %d (batch ref %d) resolved by regulator user %d ('%s')", flagID, flagged.BatchRef, resolver.ID, caller)
	return nil
}

// --- Batch Audit Queries ---

// GetFlaggedBatch returns the record for an issued flag id. Resolved flags are
// still readable; only never-issued ids are NotFound.
func (s *RxtraceSmartContract) GetFlaggedBatch(ctx contractapi.TransactionContextInterface, flagID uint64) (*model.FlaggedBatch, error) {
	logger.Debugf("Chaincode Call: GetFlaggedBatch %d", flagID)
	return s.getFlaggedBatchByID(ctx, flagID)
}

// IsBatchFlagged reports whether a flag id exists and is still unresolved.
// Unknown ids and resolved flags both read false: neither is actionable.
func (s *RxtraceSmartContract) IsBatchFlagged(ctx contractapi.TransactionContextInterface, flagID uint64) (bool, error) {
	flagged, err := s.readFlaggedBatch(ctx, flagID)
	if err != nil {
		return false, err
	}
	return flagged != nil && !flagged.Resolved, nil
}

// GetFlaggedBatchIDs returns every issued flag id in raise order, resolved ones
// included.
func (s *RxtraceSmartContract) GetFlaggedBatchIDs(ctx contractapi.TransactionContextInterface) ([]uint64, error) {
	logger.Debug("Chaincode Call: GetFlaggedBatchIDs")
	records, err := s.listFlaggedBatches(ctx, func(*model.FlaggedBatch) bool { return true })
	if err != nil {
		return nil, err
	}
	ids := []uint64{}
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids, nil
}

// GetAllFlaggedBatches returns every flag record in raise order.
func (s *RxtraceSmartContract) GetAllFlaggedBatches(ctx contractapi.TransactionContextInterface) ([]model.FlaggedBatch, error) {
	logger.Debug("Chaincode Call: GetAllFlaggedBatches")
	return s.listFlaggedBatches(ctx, func(*model.FlaggedBatch) bool { return true })
}

// GetOpenFlaggedBatches returns the unresolved flag records in raise order.
func (s *RxtraceSmartContract) GetOpenFlaggedBatches(ctx contractapi.TransactionContextInterface) ([]model.FlaggedBatch, error) {
	logger.Debug("Chaincode Call: GetOpenFlaggedBatches")
	return s.listFlaggedBatches(ctx, func(fb *model.FlaggedBatch) bool { return !fb.Resolved })
}

// GetFlaggedBatchesByBatchRef returns every flag raised against one external
// batch reference, in raise order.
func (s *RxtraceSmartContract) GetFlaggedBatchesByBatchRef(ctx contractapi.TransactionContextInterface, batchRef uint64) ([]model.FlaggedBatch, error) {
	logger.Debugf("Chaincode Call: GetFlaggedBatchesByBatchRef %d", batchRef)
	if batchRef == 0 {
		return nil, fmt.Errorf("GetFlaggedBatchesByBatchRef: %w", ErrInvalidBatchRef)
	}
	return s.listFlaggedBatches(ctx, func(fb *model.FlaggedBatch) bool { return fb.BatchRef == batchRef })
}

// --- Internal Helpers ---

func (s *RxtraceSmartContract) createFlaggedBatchKey(ctx contractapi.TransactionContextInterface, flagID uint64) (string, error) {
	return ctx.GetStub().CreateCompositeKey(flaggedBatchObjectType, []string{padID(flagID)})
}

// readFlaggedBatch fetches a flag record, returning nil without error for
// never-issued ids.
func (s *RxtraceSmartContract) readFlaggedBatch(ctx contractapi.TransactionContextInterface, flagID uint64) (*model.FlaggedBatch, error) {
	if flagID == 0 {
		return nil, nil
	}
	flagKey, err := s.createFlaggedBatchKey(ctx, flagID)
	if err != nil {
		return nil, fmt.Errorf("failed to create flag key for id %d: %w", flagID, err)
	}
	flagBytes, err := ctx.GetStub().GetState(flagKey)
	if err != nil {
		return nil, fmt.Errorf("ledger error retrieving flag %d: %w", flagID, err)
	}
	if flagBytes == nil {
		return nil, nil
	}
	var flagged model.FlaggedBatch
	if err := json.Unmarshal(flagBytes, &flagged); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flag %d: %w", flagID, err)
	}
	return &flagged, nil
}

func (s *RxtraceSmartContract) getFlaggedBatchByID(ctx contractapi.TransactionContextInterface, flagID uint64) (*model.FlaggedBatch, error) {
	flagged, err := s.readFlaggedBatch(ctx, flagID)
	if err != nil {
		return nil, err
	}
	if flagged == nil {
		return nil, fmt.Errorf("flag %d: %w", flagID, ErrNotFound)
	}
	return flagged, nil
}

func (s *RxtraceSmartContract) putFlaggedBatch(ctx contractapi.TransactionContextInterface, flagged *model.FlaggedBatch) error {
	flagKey, err := s.createFlaggedBatchKey(ctx, flagged.ID)
	if err != nil {
		return fmt.Errorf("failed to create flag key for id %d: %w", flagged.ID, err)
	}
	flagBytes, err := json.Marshal(flagged)
	if err != nil {
		return fmt.Errorf("failed to marshal flag %d: %w", flagged.ID, err)
	}
	if err := ctx.GetStub().PutState(flagKey, flagBytes); err != nil {
		return fmt.Errorf("failed to save flag %d: %w", flagged.ID, err)
	}
	return nil
}

// listFlaggedBatches range-scans flag records. Zero-padded ids make the scan
// come back in raise order.
func (s *RxtraceSmartContract) listFlaggedBatches(ctx contractapi.TransactionContextInterface, keep func(*model.FlaggedBatch) bool) ([]model.FlaggedBatch, error) {
	resultsIterator, err := ctx.GetStub().GetStateByPartialCompositeKey(flaggedBatchObjectType, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to get flagged batches iterator: %w", err)
	}
	defer resultsIterator.Close()

	records := []model.FlaggedBatch{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("listFlaggedBatches: failed to get next record from iterator: %v. Skipping.", iterErr)
			continue
		}
		var flagged model.FlaggedBatch
		if err := json.Unmarshal(queryResponse.Value, &flagged); err != nil {
			logger.Warningf("listFlaggedBatches: failed to unmarshal record for key '%s': %v. Skipping.", queryResponse.Key, err)
			continue
		}
		if keep(&flagged) {
			records = append(records, flagged)
		}
	}
	return records, nil
}
