package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rxtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var regLogger = flogging.MustGetLogger("rxtrace.registrymanager")

// wellKnownRoleNames are the names whose first-created role id backs the
// corresponding role predicate. "admin" is bound to role id 1 at bootstrap.
var wellKnownRoleNames = map[string]bool{
	model.RoleNameAdmin:        true,
	model.RoleNameDoctor:       true,
	model.RoleNamePharmacist:   true,
	model.RoleNamePatient:      true,
	model.RoleNameRegulator:    true,
	model.RoleNameManufacturer: true,
	model.RoleNameDistributor:  true,
}

// RegistryManager handles role cataloguing, user registration and admin
// privileges. It owns all Role/User/AdminFlag/RoleBinding state; external
// components only ever go through its operations.
type RegistryManager struct {
	Ctx contractapi.TransactionContextInterface
}

// NewRegistryManager creates a new instance of RegistryManager.
func NewRegistryManager(ctx contractapi.TransactionContextInterface) *RegistryManager {
	return &RegistryManager{Ctx: ctx}
}

// --- Key Creation Helpers (using Composite Keys) ---

func (rm *RegistryManager) createRoleKey(roleID uint64) (string, error) {
	return rm.Ctx.GetStub().CreateCompositeKey(roleObjectType, []string{padID(roleID)})
}

func (rm *RegistryManager) createRoleBindingKey(name string) (string, error) {
	return rm.Ctx.GetStub().CreateCompositeKey(roleBindingObjectType, []string{name})
}

func (rm *RegistryManager) createUserKey(principal string) (string, error) {
	return rm.Ctx.GetStub().CreateCompositeKey(userObjectType, []string{principal})
}

func (rm *RegistryManager) createAdminFlagKey(principal string) (string, error) {
	return rm.Ctx.GetStub().CreateCompositeKey(adminFlagObjectType, []string{principal})
}

// --- Caller Resolution ---

// GetCallerPrincipal retrieves the authenticated principal of the current
// transactor from the client identity.
func (rm *RegistryManager) GetCallerPrincipal() (string, error) {
	clientIdentity := rm.Ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return "", errors.New("client identity ID from context is empty")
	}
	return id, nil
}

// requireCallerAdmin resolves the caller principal and rejects with
// ErrNotAuthorized unless the caller is a member of the admin set.
func (rm *RegistryManager) requireCallerAdmin() (string, error) {
	caller, err := rm.GetCallerPrincipal()
	if err != nil {
		return "", fmt.Errorf("failed to resolve caller principal: %w", err)
	}
	isAdmin, err := rm.IsAdmin(caller)
	if err != nil {
		return "", fmt.Errorf("failed to verify caller admin status: %w", err)
	}
	if !isAdmin {
		return "", fmt.Errorf("caller '%s' is not an admin: %w", caller, ErrNotAuthorized)
	}
	return caller, nil
}

// --- Bootstrap ---

// IsBootstrapped reports whether the registry has been initialized. Role id 1
// exists if and only if bootstrap has run.
func (rm *RegistryManager) IsBootstrapped() (bool, error) {
	roleKey, err := rm.createRoleKey(model.AdminRoleID)
	if err != nil {
		return false, fmt.Errorf("failed to create role key for bootstrap check: %w", err)
	}
	roleBytes, err := rm.Ctx.GetStub().GetState(roleKey)
	if err != nil {
		return false, fmt.Errorf("failed to read admin role for bootstrap check: %w", err)
	}
	return roleBytes != nil, nil
}

// Bootstrap initializes the registry exactly once: role id 1 named "admin",
// the caller as User id 1 with role 1, and the caller's admin flag. Returns the
// genesis user record.
func (rm *RegistryManager) Bootstrap(email, credentialHash string) (*model.User, error) {
	bootstrapped, err := rm.IsBootstrapped()
	if err != nil {
		return nil, err
	}
	if bootstrapped {
		return nil, fmt.Errorf("bootstrap rejected: %w", ErrAlreadyBootstrapped)
	}

	caller, err := rm.GetCallerPrincipal()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bootstrap caller: %w", err)
	}
	now, err := getCurrentTxTimestamp(rm.Ctx)
	if err != nil {
		return nil, err
	}

	roleID, err := nextSequence(rm.Ctx, roleCounterName)
	if err != nil {
		return nil, err
	}
	if roleID != model.AdminRoleID {
		return nil, fmt.Errorf("bootstrap expected role id %d, counter issued %d", model.AdminRoleID, roleID)
	}
	adminRole := model.Role{
		ObjectType: roleObjectType,
		ID:         roleID,
		Name:       model.RoleNameAdmin,
		CreatedBy:  caller,
		CreatedAt:  now,
	}
	if err := rm.putRole(&adminRole); err != nil {
		return nil, err
	}
	if err := rm.putRoleBinding(model.RoleNameAdmin, roleID); err != nil {
		return nil, err
	}

	userID, err := nextSequence(rm.Ctx, userCounterName)
	if err != nil {
		return nil, err
	}
	genesis := model.User{
		ObjectType:     userObjectType,
		ID:             userID,
		Principal:      caller,
		Email:          email,
		CredentialHash: credentialHash,
		RoleID:         model.AdminRoleID,
		Exists:         true,
		RegisteredBy:   caller,
		RegisteredAt:   now,
		LastUpdatedAt:  now,
	}
	if err := rm.putUser(&genesis); err != nil {
		return nil, err
	}
	if err := rm.setAdminFlag(caller); err != nil {
		return nil, err
	}

	regLogger.Infof("Registry bootstrapped: principal '%s' is user %d and genesis admin", caller, userID)
	return &genesis, nil
}

// --- RoleRegistry ---

// CreateRole appends a role with the next sequential id. Names are stored
// verbatim; duplicates and empty names are permitted. The first role created
// with a well-known name backs that name's predicate.
func (rm *RegistryManager) CreateRole(name string) (uint64, error) {
	caller, err := rm.requireCallerAdmin()
	if err != nil {
		return 0, fmt.Errorf("CreateRole: %w", err)
	}
	if err := validateOptionalString(name, "name", maxStringInputLength); err != nil {
		return 0, err
	}

	now, err := getCurrentTxTimestamp(rm.Ctx)
	if err != nil {
		return 0, err
	}
	roleID, err := nextSequence(rm.Ctx, roleCounterName)
	if err != nil {
		return 0, err
	}
	role := model.Role{
		ObjectType: roleObjectType,
		ID:         roleID,
		Name:       name,
		CreatedBy:  caller,
		CreatedAt:  now,
	}
	if err := rm.putRole(&role); err != nil {
		return 0, err
	}

	normalized := normalizeRoleName(name)
	if wellKnownRoleNames[normalized] {
		boundID, bound, err := rm.wellKnownRoleID(normalized)
		if err != nil {
			return 0, err
		}
		if !bound {
			if err := rm.putRoleBinding(normalized, roleID); err != nil {
				return 0, err
			}
			regLogger.Infof("Well-known role name '%s' bound to role id %d", normalized, roleID)
		} else if boundID != roleID {
			regLogger.Warningf("Role name '%s' already bound to role id %d; new role %d does not rebind it", normalized, boundID, roleID)
		}
	}

	emitRegistryEvent(rm.Ctx, "RoleCreated", map[string]interface{}{
		"roleId":    roleID,
		"name":      name,
		"createdBy": caller,
	})
	regLogger.Infof("Role %d ('%s') created by admin '%s'", roleID, name, caller)
	return roleID, nil
}

// GetRole returns the role record for an issued id.
func (rm *RegistryManager) GetRole(roleID uint64) (*model.Role, error) {
	roleKey, err := rm.createRoleKey(roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to create role key for id %d: %w", roleID, err)
	}
	roleBytes, err := rm.Ctx.GetStub().GetState(roleKey)
	if err != nil {
		return nil, fmt.Errorf("ledger error retrieving role %d: %w", roleID, err)
	}
	if roleBytes == nil {
		return nil, fmt.Errorf("role %d: %w", roleID, ErrNotFound)
	}
	var role model.Role
	if err := json.Unmarshal(roleBytes, &role); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role %d: %w", roleID, err)
	}
	return &role, nil
}

// GetAllRoles returns every role in id order.
func (rm *RegistryManager) GetAllRoles() ([]model.Role, error) {
	resultsIterator, err := rm.Ctx.GetStub().GetStateByPartialCompositeKey(roleObjectType, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to get roles iterator: %w", err)
	}
	defer resultsIterator.Close()

	roles := []model.Role{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			regLogger.Warningf("GetAllRoles: failed to get next role from iterator: %v. Skipping.", iterErr)
			continue
		}
		var role model.Role
		if err := json.Unmarshal(queryResponse.Value, &role); err != nil {
			regLogger.Warningf("GetAllRoles: failed to unmarshal role data for key '%s': %v. Skipping.", queryResponse.Key, err)
			continue
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func (rm *RegistryManager) roleExists(roleID uint64) (bool, error) {
	if roleID == 0 {
		return false, nil
	}
	roleKey, err := rm.createRoleKey(roleID)
	if err != nil {
		return false, fmt.Errorf("failed to create role key for id %d: %w", roleID, err)
	}
	roleBytes, err := rm.Ctx.GetStub().GetState(roleKey)
	if err != nil {
		return false, fmt.Errorf("ledger error checking role %d: %w", roleID, err)
	}
	return roleBytes != nil, nil
}

func (rm *RegistryManager) putRole(role *model.Role) error {
	roleKey, err := rm.createRoleKey(role.ID)
	if err != nil {
		return fmt.Errorf("failed to create role key for id %d: %w", role.ID, err)
	}
	roleBytes, err := json.Marshal(role)
	if err != nil {
		return fmt.Errorf("failed to marshal role %d: %w", role.ID, err)
	}
	if err := rm.Ctx.GetStub().PutState(roleKey, roleBytes); err != nil {
		return fmt.Errorf("failed to save role %d: %w", role.ID, err)
	}
	return nil
}

func (rm *RegistryManager) putRoleBinding(name string, roleID uint64) error {
	bindingKey, err := rm.createRoleBindingKey(name)
	if err != nil {
		return fmt.Errorf("failed to create role binding key for '%s': %w", name, err)
	}
	if err := rm.Ctx.GetStub().PutState(bindingKey, []byte(strconv.FormatUint(roleID, 10))); err != nil {
		return fmt.Errorf("failed to save role binding '%s' -> %d: %w", name, roleID, err)
	}
	return nil
}

// wellKnownRoleID looks up the role id bound to a well-known role name.
func (rm *RegistryManager) wellKnownRoleID(name string) (uint64, bool, error) {
	bindingKey, err := rm.createRoleBindingKey(name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create role binding key for '%s': %w", name, err)
	}
	bindingBytes, err := rm.Ctx.GetStub().GetState(bindingKey)
	if err != nil {
		return 0, false, fmt.Errorf("ledger error reading role binding '%s': %w", name, err)
	}
	if bindingBytes == nil {
		return 0, false, nil
	}
	roleID, err := strconv.ParseUint(string(bindingBytes), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt role binding for '%s': %w", name, err)
	}
	return roleID, true, nil
}

// --- UserRegistry ---

// RegisterUser creates a user record bound to a principal and a role. A
// principal gets exactly one record, ever: removal retires the record rather
// than deleting it, so re-registration of a removed principal is rejected too.
func (rm *RegistryManager) RegisterUser(principal, email, credentialHash string, roleID uint64) (uint64, error) {
	caller, err := rm.requireCallerAdmin()
	if err != nil {
		return 0, fmt.Errorf("RegisterUser: %w", err)
	}
	if strings.TrimSpace(principal) == "" {
		return 0, fmt.Errorf("RegisterUser: %w", ErrInvalidPrincipal)
	}
	if err := validateOptionalString(email, "email", maxStringInputLength); err != nil {
		return 0, err
	}

	existing, err := rm.getUserRecord(principal)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, fmt.Errorf("RegisterUser: principal '%s': %w", principal, ErrAlreadyRegistered)
	}

	exists, err := rm.roleExists(roleID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("RegisterUser: role %d: %w", roleID, ErrInvalidRole)
	}

	now, err := getCurrentTxTimestamp(rm.Ctx)
	if err != nil {
		return 0, err
	}
	userID, err := nextSequence(rm.Ctx, userCounterName)
	if err != nil {
		return 0, err
	}
	user := model.User{
		ObjectType:     userObjectType,
		ID:             userID,
		Principal:      principal,
		Email:          email,
		CredentialHash: credentialHash,
		RoleID:         roleID,
		Exists:         true,
		RegisteredBy:   caller,
		RegisteredAt:   now,
		LastUpdatedAt:  now,
	}
	if err := rm.putUser(&user); err != nil {
		return 0, err
	}
	if roleID == model.AdminRoleID {
		if err := rm.setAdminFlag(principal); err != nil {
			return 0, err
		}
	}

	emitRegistryEvent(rm.Ctx, "UserRegistered", map[string]interface{}{
		"userId":    userID,
		"principal": principal,
		"roleId":    roleID,
	})
	regLogger.Infof("User %d registered for principal '%s' with role %d by admin '%s'", userID, principal, roleID, caller)
	return userID, nil
}

// UpdateUserRole overwrites a user's role and keeps the admin set in sync:
// moving onto role 1 grants membership, moving off role 1 revokes it.
func (rm *RegistryManager) UpdateUserRole(principal string, newRoleID uint64) error {
	caller, err := rm.requireCallerAdmin()
	if err != nil {
		return fmt.Errorf("UpdateUserRole: %w", err)
	}

	user, err := rm.getLiveUser(principal)
	if err != nil {
		return fmt.Errorf("UpdateUserRole: %w", err)
	}
	exists, err := rm.roleExists(newRoleID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("UpdateUserRole: role %d: %w", newRoleID, ErrInvalidRole)
	}

	now, err := getCurrentTxTimestamp(rm.Ctx)
	if err != nil {
		return err
	}
	oldRoleID := user.RoleID
	user.RoleID = newRoleID
	user.LastUpdatedAt = now
	if err := rm.putUser(user); err != nil {
		return err
	}

	if newRoleID == model.AdminRoleID {
		if err := rm.setAdminFlag(principal); err != nil {
			return err
		}
	} else if oldRoleID == model.AdminRoleID {
		if err := rm.clearAdminFlag(principal); err != nil {
			return err
		}
	}

	emitRegistryEvent(rm.Ctx, "UserRoleUpdated", map[string]interface{}{
		"userId":    user.ID,
		"principal": principal,
		"oldRoleId": oldRoleID,
		"newRoleId": newRoleID,
	})
	regLogger.Infof("User %d ('%s') role changed %d -> %d by admin '%s'", user.ID, principal, oldRoleID, newRoleID, caller)
	return nil
}

// RemoveUser retires a user record. The id is never reassigned; the record
// stays on the ledger with the existence flag cleared.
func (rm *RegistryManager) RemoveUser(principal string) error {
	caller, err := rm.requireCallerAdmin()
	if err != nil {
		return fmt.Errorf("RemoveUser: %w", err)
	}

	user, err := rm.getLiveUser(principal)
	if err != nil {
		return fmt.Errorf("RemoveUser: %w", err)
	}
	now, err := getCurrentTxTimestamp(rm.Ctx)
	if err != nil {
		return err
	}
	user.Exists = false
	user.LastUpdatedAt = now
	if err := rm.putUser(user); err != nil {
		return err
	}

	isAdmin, err := rm.IsAdmin(principal)
	if err != nil {
		return err
	}
	if isAdmin {
		if err := rm.clearAdminFlag(principal); err != nil {
			return err
		}
	}

	emitRegistryEvent(rm.Ctx, "UserRemoved", map[string]interface{}{
		"userId":    user.ID,
		"principal": principal,
	})
	regLogger.Infof("User %d ('%s') removed by admin '%s'", user.ID, principal, caller)
	return nil
}

// --- AdminAuthority ---

// AddAdmin grants admin-set membership to a registered principal without
// touching its role assignment.
func (rm *RegistryManager) AddAdmin(principal string) error {
	caller, err := rm.requireCallerAdmin()
	if err != nil {
		return fmt.Errorf("AddAdmin: %w", err)
	}
	user, err := rm.getLiveUser(principal)
	if err != nil {
		return fmt.Errorf("AddAdmin: %w", err)
	}
	if err := rm.setAdminFlag(principal); err != nil {
		return err
	}

	emitRegistryEvent(rm.Ctx, "AdminGranted", map[string]interface{}{
		"userId":    user.ID,
		"principal": principal,
		"grantedBy": caller,
	})
	regLogger.Infof("Admin privilege granted to user %d ('%s') by '%s'", user.ID, principal, caller)
	return nil
}

// RemoveAdmin revokes admin-set membership. Self-revocation is rejected so a
// caller cannot lock itself out mid-flight; see the role-change path for the
// one remaining way the admin set can empty.
func (rm *RegistryManager) RemoveAdmin(principal string) error {
	caller, err := rm.requireCallerAdmin()
	if err != nil {
		return fmt.Errorf("RemoveAdmin: %w", err)
	}
	isAdmin, err := rm.IsAdmin(principal)
	if err != nil {
		return err
	}
	if !isAdmin {
		return fmt.Errorf("RemoveAdmin: principal '%s': %w", principal, ErrNotAnAdmin)
	}
	if principal == caller {
		return fmt.Errorf("RemoveAdmin: %w", ErrSelfRevocationDenied)
	}
	if err := rm.clearAdminFlag(principal); err != nil {
		return err
	}

	emitRegistryEvent(rm.Ctx, "AdminRevoked", map[string]interface{}{
		"principal": principal,
		"revokedBy": caller,
	})
	regLogger.Infof("Admin privilege revoked from '%s' by '%s'", principal, caller)
	return nil
}

// IsAdmin reports admin-set membership based on the AdminFlag entry. Unknown
// principals are simply not admins; this read never rejects.
func (rm *RegistryManager) IsAdmin(principal string) (bool, error) {
	if strings.TrimSpace(principal) == "" {
		return false, nil
	}
	adminFlagKey, err := rm.createAdminFlagKey(principal)
	if err != nil {
		return false, fmt.Errorf("failed to create admin flag key for '%s': %w", principal, err)
	}
	flagBytes, err := rm.Ctx.GetStub().GetState(adminFlagKey)
	if err != nil {
		return false, fmt.Errorf("ledger error checking admin flag for '%s': %w", principal, err)
	}
	return flagBytes != nil && string(flagBytes) == "true", nil
}

// IsCallerAdmin checks the current transactor's admin-set membership.
func (rm *RegistryManager) IsCallerAdmin() (bool, error) {
	caller, err := rm.GetCallerPrincipal()
	if err != nil {
		return false, fmt.Errorf("failed to resolve caller principal for admin check: %w", err)
	}
	return rm.IsAdmin(caller)
}

func (rm *RegistryManager) setAdminFlag(principal string) error {
	adminFlagKey, err := rm.createAdminFlagKey(principal)
	if err != nil {
		return fmt.Errorf("failed to create admin flag key for '%s': %w", principal, err)
	}
	if err := rm.Ctx.GetStub().PutState(adminFlagKey, []byte("true")); err != nil {
		return fmt.Errorf("failed to set admin flag for '%s': %w", principal, err)
	}
	return nil
}

func (rm *RegistryManager) clearAdminFlag(principal string) error {
	adminFlagKey, err := rm.createAdminFlagKey(principal)
	if err != nil {
		return fmt.Errorf("failed to create admin flag key for '%s': %w", principal, err)
	}
	if err := rm.Ctx.GetStub().DelState(adminFlagKey); err != nil {
		return fmt.Errorf("failed to clear admin flag for '%s': %w", principal, err)
	}
	return nil
}

// --- Role Predicates ---

// HasWellKnownRole reports whether a principal's live user record carries the
// role id bound to a well-known role name. Unknown principals and unbound
// names are false, never an error.
func (rm *RegistryManager) HasWellKnownRole(principal, roleName string) (bool, error) {
	user, err := rm.getUserRecord(principal)
	if err != nil {
		return false, err
	}
	if user == nil || !user.Exists {
		return false, nil
	}
	boundID, bound, err := rm.wellKnownRoleID(normalizeRoleName(roleName))
	if err != nil {
		return false, err
	}
	if !bound {
		return false, nil
	}
	return user.RoleID == boundID, nil
}

// --- User Reads ---

// GetUser returns the live user record for a principal. Removed principals are
// treated as absent.
func (rm *RegistryManager) GetUser(principal string) (*model.User, error) {
	return rm.getLiveUser(principal)
}

// GetAllUsers returns every live user record. Admin-only.
func (rm *RegistryManager) GetAllUsers() ([]model.User, error) {
	if _, err := rm.requireCallerAdmin(); err != nil {
		return nil, fmt.Errorf("GetAllUsers: %w", err)
	}
	return rm.listUsers(func(u *model.User) bool { return u.Exists })
}

// GetUsersByRole returns every live user currently assigned the given role.
func (rm *RegistryManager) GetUsersByRole(roleID uint64) ([]model.User, error) {
	exists, err := rm.roleExists(roleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("GetUsersByRole: role %d: %w", roleID, ErrInvalidRole)
	}
	return rm.listUsers(func(u *model.User) bool { return u.Exists && u.RoleID == roleID })
}

func (rm *RegistryManager) listUsers(keep func(*model.User) bool) ([]model.User, error) {
	resultsIterator, err := rm.Ctx.GetStub().GetStateByPartialCompositeKey(userObjectType, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to get users iterator: %w", err)
	}
	defer resultsIterator.Close()

	users := []model.User{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			regLogger.Warningf("listUsers: failed to get next user from iterator: %v. Skipping.", iterErr)
			continue
		}
		var user model.User
		if err := json.Unmarshal(queryResponse.Value, &user); err != nil {
			regLogger.Warningf("listUsers: failed to unmarshal user data for key '%s': %v. Skipping.", queryResponse.Key, err)
			continue
		}
		if keep(&user) {
			users = append(users, user)
		}
	}
	return users, nil
}

// getUserRecord fetches the raw record for a principal, removed ones included.
// Returns nil without error when no record was ever written.
func (rm *RegistryManager) getUserRecord(principal string) (*model.User, error) {
	if strings.TrimSpace(principal) == "" {
		return nil, nil
	}
	userKey, err := rm.createUserKey(principal)
	if err != nil {
		return nil, fmt.Errorf("failed to create user key for '%s': %w", principal, err)
	}
	userBytes, err := rm.Ctx.GetStub().GetState(userKey)
	if err != nil {
		return nil, fmt.Errorf("ledger error retrieving user for '%s': %w", principal, err)
	}
	if userBytes == nil {
		return nil, nil
	}
	var user model.User
	if err := json.Unmarshal(userBytes, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user for '%s': %w", principal, err)
	}
	return &user, nil
}

func (rm *RegistryManager) getLiveUser(principal string) (*model.User, error) {
	user, err := rm.getUserRecord(principal)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Exists {
		return nil, fmt.Errorf("principal '%s': %w", principal, ErrNotRegistered)
	}
	return user, nil
}

func (rm *RegistryManager) putUser(user *model.User) error {
	userKey, err := rm.createUserKey(user.Principal)
	if err != nil {
		return fmt.Errorf("failed to create user key for '%s': %w", user.Principal, err)
	}
	userBytes, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user %d: %w", user.ID, err)
	}
	if err := rm.Ctx.GetStub().PutState(userKey, userBytes); err != nil {
		return fmt.Errorf("failed to save user %d: %w", user.ID, err)
	}
	return nil
}
