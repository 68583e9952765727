package contract

import (
	"fmt"

	"rxtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("rxtrace.registrycontract")

// RxtraceSmartContract provides the user/role registry and the batch-flagging
// audit ledger for the prescription platform. Every mutating operation runs as
// one Fabric transaction: either all of its writes and its event commit, or the
// operation is rejected with no observable side effect.
// @contract:RxtraceSmartContract
type RxtraceSmartContract struct {
	contractapi.Contract
}

// Instantiate is called during chaincode instantiation.
func (s *RxtraceSmartContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("RxtraceSmartContract Instantiated/Upgraded")
}

// BootstrapRegistry initializes the registry exactly once: role id 1 ("admin"),
// User id 1 bound to the calling principal, and the caller's admin-set
// membership. Re-running it is rejected.
func (s *RxtraceSmartContract) BootstrapRegistry(ctx contractapi.TransactionContextInterface, email, credentialHash string) error {
	logger.Info("Chaincode Call: BootstrapRegistry")
	genesis, err := NewRegistryManager(ctx).Bootstrap(email, credentialHash)
	if err != nil {
		return err
	}
	emitRegistryEvent(ctx, "RegistryBootstrapped", map[string]interface{}{
		"userId":    genesis.ID,
		"principal": genesis.Principal,
		"roleId":    genesis.RoleID,
	})
	return nil
}

// --- Role Catalog Wrappers (Delegating to RegistryManager) ---

func (s *RxtraceSmartContract) CreateRole(ctx contractapi.TransactionContextInterface, name string) (uint64, error) {
	logger.Infof("Chaincode Call: CreateRole '%s'", name)
	return NewRegistryManager(ctx).CreateRole(name)
}

func (s *RxtraceSmartContract) GetRole(ctx contractapi.TransactionContextInterface, roleID uint64) (*model.Role, error) {
	logger.Debugf("Chaincode Call: GetRole %d", roleID)
	return NewRegistryManager(ctx).GetRole(roleID)
}

// GetRoleName is a convenience read for callers that only need the name.
func (s *RxtraceSmartContract) GetRoleName(ctx contractapi.TransactionContextInterface, roleID uint64) (string, error) {
	logger.Debugf("Chaincode Call: GetRoleName %d", roleID)
	role, err := NewRegistryManager(ctx).GetRole(roleID)
	if err != nil {
		return "", err
	}
	return role.Name, nil
}

func (s *RxtraceSmartContract) GetAllRoles(ctx contractapi.TransactionContextInterface) ([]model.Role, error) {
	logger.Debug("Chaincode Call: GetAllRoles")
	return NewRegistryManager(ctx).GetAllRoles()
}

// --- User Registry Wrappers ---

func (s *RxtraceSmartContract) RegisterUser(ctx contractapi.TransactionContextInterface, principal, email, credentialHash string, roleID uint64) (uint64, error) {
	logger.Infof("Chaincode Call: RegisterUser for '%s' with role %d", principal, roleID)
	return NewRegistryManager(ctx).RegisterUser(principal, email, credentialHash, roleID)
}

func (s *RxtraceSmartContract) UpdateUserRole(ctx contractapi.TransactionContextInterface, principal string, roleID uint64) error {
	logger.Infof("Chaincode Call: UpdateUserRole for '%s' to role %d", principal, roleID)
	return NewRegistryManager(ctx).UpdateUserRole(principal, roleID)
}

func (s *RxtraceSmartContract) RemoveUser(ctx contractapi.TransactionContextInterface, principal string) error {
	logger.Infof("Chaincode Call: RemoveUser '%s'", principal)
	return NewRegistryManager(ctx).RemoveUser(principal)
}

func (s *RxtraceSmartContract) AddAdmin(ctx contractapi.TransactionContextInterface, principal string) error {
	logger.Infof("Chaincode Call: AddAdmin '%s'", principal)
	return NewRegistryManager(ctx).AddAdmin(principal)
}

func (s *RxtraceSmartContract) RemoveAdmin(ctx contractapi.TransactionContextInterface, principal string) error {
	logger.Infof("Chaincode Call: RemoveAdmin '%s'", principal)
	return NewRegistryManager(ctx).RemoveAdmin(principal)
}

// GetUser returns the live record for a principal; removed users read as
// absent. Only admins or the principal itself may read the record.
func (s *RxtraceSmartContract) GetUser(ctx contractapi.TransactionContextInterface, principal string) (*model.User, error) {
	logger.Debugf("Chaincode Call: GetUser '%s'", principal)
	rm := NewRegistryManager(ctx)
	isCallerAdmin, err := rm.IsCallerAdmin()
	if err != nil {
		return nil, fmt.Errorf("GetUser: failed to check admin status: %w", err)
	}
	if !isCallerAdmin {
		caller, err := rm.GetCallerPrincipal()
		if err != nil {
			return nil, fmt.Errorf("GetUser: failed to resolve caller principal: %w", err)
		}
		if caller != principal {
			return nil, fmt.Errorf("GetUser: only admins or the record owner may read it: %w", ErrNotAuthorized)
		}
	}
	return rm.GetUser(principal)
}

func (s *RxtraceSmartContract) GetAllUsers(ctx contractapi.TransactionContextInterface) ([]model.User, error) {
	logger.Debug("Chaincode Call: GetAllUsers")
	return NewRegistryManager(ctx).GetAllUsers()
}

func (s *RxtraceSmartContract) GetUsersByRole(ctx contractapi.TransactionContextInterface, roleID uint64) ([]model.User, error) {
	logger.Debugf("Chaincode Call: GetUsersByRole %d", roleID)
	return NewRegistryManager(ctx).GetUsersByRole(roleID)
}

// --- Role Predicates ---
// Pure reads: unknown principals and unbound role names are false, never an
// error, so the REST collaborator can probe freely.

func (s *RxtraceSmartContract) IsAdmin(ctx contractapi.TransactionContextInterface, principal string) (bool, error) {
	return NewRegistryManager(ctx).IsAdmin(principal)
}

func (s *RxtraceSmartContract) IsDoctor(ctx contractapi.TransactionContextInterface, principal string) (bool, error) {
	return NewRegistryManager(ctx).HasWellKnownRole(principal, model.RoleNameDoctor)
}

func (s *RxtraceSmartContract) IsPharmacist(ctx contractapi.TransactionContextInterface, principal string) (bool, error) {
	return NewRegistryManager(ctx).HasWellKnownRole(principal, model.RoleNamePharmacist)
}

func (s *RxtraceSmartContract) IsPatient(ctx contractapi.TransactionContextInterface, principal string) (bool, error) {
	return NewRegistryManager(ctx).HasWellKnownRole(principal, model.RoleNamePatient)
}

func (s *RxtraceSmartContract) IsRegulator(ctx contractapi.TransactionContextInterface, principal string) (bool, error) {
	return NewRegistryManager(ctx).HasWellKnownRole(principal, model.RoleNameRegulator)
}

func (s *RxtraceSmartContract) IsManufacturer(ctx contractapi.TransactionContextInterface, principal string) (bool, error) {
	return NewRegistryManager(ctx).HasWellKnownRole(principal, model.RoleNameManufacturer)
}

func (s *RxtraceSmartContract) IsDistributor(ctx contractapi.TransactionContextInterface, principal string) (bool, error) {
	return NewRegistryManager(ctx).HasWellKnownRole(principal, model.RoleNameDistributor)
}
