package contract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// compositeKeySeparator mirrors the separator the real stub uses so range
// scans behave like the ledger's.
const compositeKeySeparator = "\x00"

// mockStub is an in-memory stand-in for the peer's state database. It
// implements only the stub methods the contract actually calls; everything
// else falls through to the embedded nil interface.
type mockStub struct {
	shim.ChaincodeStubInterface
	state  map[string][]byte
	events []mockEvent
	now    time.Time
}

type mockEvent struct {
	name    string
	payload []byte
}

func newMockStub() *mockStub {
	return &mockStub{
		state: map[string][]byte{},
		now:   time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC),
	}
}

func (ms *mockStub) GetState(key string) ([]byte, error) {
	value, ok := ms.state[key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (ms *mockStub) PutState(key string, value []byte) error {
	ms.state[key] = value
	return nil
}

func (ms *mockStub) DelState(key string) error {
	delete(ms.state, key)
	return nil
}

func (ms *mockStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	if objectType == "" {
		return "", fmt.Errorf("objectType cannot be empty")
	}
	key := compositeKeySeparator + objectType + compositeKeySeparator
	for _, attr := range attributes {
		key += attr + compositeKeySeparator
	}
	return key, nil
}

func (ms *mockStub) GetStateByPartialCompositeKey(objectType string, attributes []string) (shim.StateQueryIteratorInterface, error) {
	prefix, err := ms.CreateCompositeKey(objectType, attributes)
	if err != nil {
		return nil, err
	}
	keys := []string{}
	for key := range ms.state {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return &mockIterator{stub: ms, keys: keys}, nil
}

func (ms *mockStub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(ms.now), nil
}

func (ms *mockStub) SetEvent(name string, payload []byte) error {
	ms.events = append(ms.events, mockEvent{name: name, payload: payload})
	return nil
}

func (ms *mockStub) lastEvent() *mockEvent {
	if len(ms.events) == 0 {
		return nil
	}
	return &ms.events[len(ms.events)-1]
}

type mockIterator struct {
	shim.StateQueryIteratorInterface
	stub *mockStub
	keys []string
	pos  int
}

func (it *mockIterator) HasNext() bool {
	return it.pos < len(it.keys)
}

func (it *mockIterator) Next() (*queryresult.KV, error) {
	if !it.HasNext() {
		return nil, fmt.Errorf("iterator exhausted")
	}
	key := it.keys[it.pos]
	it.pos++
	return &queryresult.KV{Key: key, Value: it.stub.state[key]}, nil
}

func (it *mockIterator) Close() error {
	return nil
}

// mockClientIdentity supplies the already-authenticated caller principal.
type mockClientIdentity struct {
	cid.ClientIdentity
	id string
}

func (mc *mockClientIdentity) GetID() (string, error) {
	return mc.id, nil
}

// mockTxContext pairs a shared state stub with a per-call principal, the same
// way the peer binds a client identity to each transaction.
type mockTxContext struct {
	stub   *mockStub
	caller string
}

func (mt *mockTxContext) GetStub() shim.ChaincodeStubInterface {
	return mt.stub
}

func (mt *mockTxContext) GetClientIdentity() cid.ClientIdentity {
	return &mockClientIdentity{id: mt.caller}
}

func ctxAs(stub *mockStub, principal string) *mockTxContext {
	return &mockTxContext{stub: stub, caller: principal}
}
