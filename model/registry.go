// File: model/registry.go
package model

import "time"

// AdminRoleID is the role id reserved for the "admin" role. It is created at
// bootstrap and never reissued or renamed.
const AdminRoleID uint64 = 1

// Well-known role names. A role created with one of these names (first creation
// wins) backs the corresponding role predicate on the contract.
const (
	RoleNameAdmin        = "admin"
	RoleNameDoctor       = "doctor"
	RoleNamePharmacist   = "pharmacist"
	RoleNamePatient      = "patient"
	RoleNameRegulator    = "regulator"
	RoleNameManufacturer = "manufacturer"
	RoleNameDistributor  = "distributor"
)

// Role is an append-only catalog entry. Ids are sequential and never reused;
// names are stored verbatim and carry no uniqueness constraint.
type Role struct {
	ObjectType string    `json:"objectType"` // Set to the composite key object type (Role)
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	CreatedBy  string    `json:"createdBy"` // Principal of the admin that created the role
	CreatedAt  time.Time `json:"createdAt"`
}

// User stores a registered participant. Exactly one live record exists per
// principal; a removed record is retained with Exists=false so the id stays
// permanently retired.
type User struct {
	ObjectType     string    `json:"objectType"` // Set to the composite key object type (User)
	ID             uint64    `json:"id"`
	Principal      string    `json:"principal"`      // Authenticated external identity (opaque)
	Email          string    `json:"email"`
	CredentialHash string    `json:"credentialHash"` // Pre-hashed by the auth collaborator
	RoleID         uint64    `json:"roleId"`
	Exists         bool      `json:"exists"`
	RegisteredBy   string    `json:"registeredBy"` // Principal of the registering admin
	RegisteredAt   time.Time `json:"registeredAt"`
	LastUpdatedAt  time.Time `json:"lastUpdatedAt"`
}
