package contract

import (
	"errors"
	"testing"
)

const secondRegulatorPrincipal = "x509::CN=inspector-b::OU=agency"

// regulatedContract returns a bootstrapped contract with the regulator role
// created and two regulators plus one doctor registered.
func regulatedContract(t *testing.T) (*RxtraceSmartContract, *mockStub) {
	t.Helper()
	sc, stub := bootstrappedContract(t)
	adminCtx := ctxAs(stub, genesisPrincipal)

	regulatorRole, err := sc.CreateRole(adminCtx, "regulator")
	if err != nil {
		t.Fatalf("CreateRole(regulator): %v", err)
	}
	doctorRole, err := sc.CreateRole(adminCtx, "doctor")
	if err != nil {
		t.Fatalf("CreateRole(doctor): %v", err)
	}
	if _, err := sc.RegisterUser(adminCtx, regulatorPrincipal, "a@agency", "h", regulatorRole); err != nil {
		t.Fatalf("RegisterUser(regulator a): %v", err)
	}
	if _, err := sc.RegisterUser(adminCtx, secondRegulatorPrincipal, "b@agency", "h", regulatorRole); err != nil {
		t.Fatalf("RegisterUser(regulator b): %v", err)
	}
	if _, err := sc.RegisterUser(adminCtx, doctorPrincipal, "d@clinic", "h", doctorRole); err != nil {
		t.Fatalf("RegisterUser(doctor): %v", err)
	}
	return sc, stub
}

func TestFlagBatchAuthorization(t *testing.T) {
	sc, stub := regulatedContract(t)

	if _, err := sc.FlagBatch(ctxAs(stub, strangerPrincipal), 77, "tampering"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("unregistered caller: expected ErrNotRegistered, got %v", err)
	}
	if _, err := sc.FlagBatch(ctxAs(stub, doctorPrincipal), 77, "tampering"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("non-regulator caller: expected ErrNotAuthorized, got %v", err)
	}
	// Admin status alone does not confer flagging authority.
	if _, err := sc.FlagBatch(ctxAs(stub, genesisPrincipal), 77, "tampering"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("admin caller without regulator role: expected ErrNotAuthorized, got %v", err)
	}
}

func TestFlagBatchInputValidation(t *testing.T) {
	sc, stub := regulatedContract(t)
	regCtx := ctxAs(stub, regulatorPrincipal)

	if _, err := sc.FlagBatch(regCtx, 0, "reason"); !errors.Is(err, ErrInvalidBatchRef) {
		t.Fatalf("zero batchRef: expected ErrInvalidBatchRef, got %v", err)
	}
	if _, err := sc.FlagBatch(regCtx, 123, "   "); !errors.Is(err, ErrEmptyReason) {
		t.Fatalf("blank reason: expected ErrEmptyReason, got %v", err)
	}

	// Neither rejection advances the flag counter.
	flagID, err := sc.FlagBatch(regCtx, 123, "contamination")
	if err != nil {
		t.Fatalf("FlagBatch: %v", err)
	}
	if flagID != 1 {
		t.Fatalf("expected first flag id 1, got %d", flagID)
	}
}

func TestFlagSequenceAndResolution(t *testing.T) {
	sc, stub := regulatedContract(t)
	regA := ctxAs(stub, regulatorPrincipal)
	regB := ctxAs(stub, secondRegulatorPrincipal)

	// Raise order defines the id sequence, regardless of which regulator raised
	// each flag.
	for i, raise := range []struct {
		ctx      *mockTxContext
		batchRef uint64
	}{{regA, 100}, {regB, 200}, {regA, 300}} {
		id, err := sc.FlagBatch(raise.ctx, raise.batchRef, "suspect lot")
		if err != nil {
			t.Fatalf("FlagBatch #%d: %v", i+1, err)
		}
		if id != uint64(i+1) {
			t.Fatalf("expected flag id %d, got %d", i+1, id)
		}
	}

	ids, err := sc.GetFlaggedBatchIDs(regA)
	if err != nil {
		t.Fatalf("GetFlaggedBatchIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("expected ids [1 2 3], got %v", ids)
	}

	// Resolution authority is role-based: B resolves a flag A raised.
	if err := sc.ResolveBatch(regB, 1); err != nil {
		t.Fatalf("ResolveBatch by a different regulator: %v", err)
	}

	flagged, err := sc.GetFlaggedBatch(regA, 1)
	if err != nil {
		t.Fatalf("GetFlaggedBatch after resolution: %v", err)
	}
	if !flagged.Resolved {
		t.Fatalf("flag 1 should be resolved: %+v", flagged)
	}
	if ok, err := sc.IsBatchFlagged(regA, 1); err != nil || ok {
		t.Fatalf("resolved flag should read not-flagged, got %v, %v", ok, err)
	}
	if ok, err := sc.IsBatchFlagged(regA, 2); err != nil || !ok {
		t.Fatalf("unresolved flag should read flagged, got %v, %v", ok, err)
	}

	// Resolved ids stay in the sequence.
	ids, _ = sc.GetFlaggedBatchIDs(regA)
	if len(ids) != 3 {
		t.Fatalf("resolution must not shrink the id sequence: %v", ids)
	}
}

func TestResolveBatchFailureKinds(t *testing.T) {
	sc, stub := regulatedContract(t)
	regCtx := ctxAs(stub, regulatorPrincipal)

	if err := sc.ResolveBatch(ctxAs(stub, doctorPrincipal), 1); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("non-regulator resolve: expected ErrNotAuthorized, got %v", err)
	}
	if err := sc.ResolveBatch(regCtx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("never-issued id: expected ErrNotFound, got %v", err)
	}

	if _, err := sc.FlagBatch(regCtx, 55, "mislabelled"); err != nil {
		t.Fatalf("FlagBatch: %v", err)
	}
	if err := sc.ResolveBatch(regCtx, 1); err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if err := sc.ResolveBatch(regCtx, 1); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("double resolve: expected ErrAlreadyResolved, got %v", err)
	}
}

func TestIsBatchFlaggedNeverFails(t *testing.T) {
	sc, stub := regulatedContract(t)
	ok, err := sc.IsBatchFlagged(ctxAs(stub, strangerPrincipal), 424242)
	if err != nil {
		t.Fatalf("IsBatchFlagged on unknown id returned error: %v", err)
	}
	if ok {
		t.Fatalf("unknown id should read not-flagged")
	}
}

func TestFlaggedBatchRoundTrip(t *testing.T) {
	sc, stub := regulatedContract(t)
	regCtx := ctxAs(stub, regulatorPrincipal)

	flagID, err := sc.FlagBatch(regCtx, 555, "contamination")
	if err != nil {
		t.Fatalf("FlagBatch: %v", err)
	}
	flagged, err := sc.GetFlaggedBatch(regCtx, flagID)
	if err != nil {
		t.Fatalf("GetFlaggedBatch: %v", err)
	}
	raiser, err := sc.GetUser(ctxAs(stub, genesisPrincipal), regulatorPrincipal)
	if err != nil {
		t.Fatalf("GetUser(raiser): %v", err)
	}
	if flagged.ID != flagID || flagged.BatchRef != 555 || flagged.Reason != "contamination" ||
		flagged.RaisedByUserID != raiser.ID || flagged.Resolved || flagged.RaisedAt.IsZero() {
		t.Fatalf("round-trip mismatch: %+v", flagged)
	}
}

func TestFlaggedBatchListings(t *testing.T) {
	sc, stub := regulatedContract(t)
	regCtx := ctxAs(stub, regulatorPrincipal)

	for _, ref := range []uint64{10, 20, 10} {
		if _, err := sc.FlagBatch(regCtx, ref, "suspect lot"); err != nil {
			t.Fatalf("FlagBatch(%d): %v", ref, err)
		}
	}
	if err := sc.ResolveBatch(regCtx, 2); err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}

	all, err := sc.GetAllFlaggedBatches(regCtx)
	if err != nil {
		t.Fatalf("GetAllFlaggedBatches: %v", err)
	}
	if len(all) != 3 || all[0].ID != 1 || all[2].ID != 3 {
		t.Fatalf("expected 3 records in raise order, got %+v", all)
	}

	open, err := sc.GetOpenFlaggedBatches(regCtx)
	if err != nil {
		t.Fatalf("GetOpenFlaggedBatches: %v", err)
	}
	if len(open) != 2 || open[0].ID != 1 || open[1].ID != 3 {
		t.Fatalf("expected open flags [1 3], got %+v", open)
	}

	byRef, err := sc.GetFlaggedBatchesByBatchRef(regCtx, 10)
	if err != nil {
		t.Fatalf("GetFlaggedBatchesByBatchRef: %v", err)
	}
	if len(byRef) != 2 || byRef[0].ID != 1 || byRef[1].ID != 3 {
		t.Fatalf("expected flags [1 3] for batch ref 10, got %+v", byRef)
	}
	if _, err := sc.GetFlaggedBatchesByBatchRef(regCtx, 0); !errors.Is(err, ErrInvalidBatchRef) {
		t.Fatalf("zero batch ref: expected ErrInvalidBatchRef, got %v", err)
	}
}

func TestBatchAuditEvents(t *testing.T) {
	sc, stub := regulatedContract(t)
	regCtx := ctxAs(stub, regulatorPrincipal)

	if _, err := sc.FlagBatch(regCtx, 42, "suspect lot"); err != nil {
		t.Fatalf("FlagBatch: %v", err)
	}
	if got := stub.lastEvent(); got == nil || got.name != "BatchFlagged" {
		t.Fatalf("expected BatchFlagged event, got %+v", got)
	}
	if err := sc.ResolveBatch(regCtx, 1); err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if got := stub.lastEvent(); got == nil || got.name != "BatchResolved" {
		t.Fatalf("expected BatchResolved event, got %+v", got)
	}

	before := len(stub.events)
	if _, err := sc.FlagBatch(regCtx, 0, "reason"); !errors.Is(err, ErrInvalidBatchRef) {
		t.Fatalf("expected ErrInvalidBatchRef, got %v", err)
	}
	if len(stub.events) != before {
		t.Fatalf("rejected flag emitted an event")
	}
}
