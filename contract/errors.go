package contract

import "errors"

// Failure kinds returned by registry and audit operations. Every rejection wraps
// exactly one of these so callers can map it to a precise response with
// errors.Is. A returned error aborts the whole transaction: nothing is written
// and no event is emitted.
var (
	// ErrNotAuthorized caller lacks the required privilege or role.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotRegistered the referenced principal has no live user record.
	ErrNotRegistered = errors.New("principal not registered")

	// ErrNotFound the referenced entity id was never issued.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyRegistered the principal already has a live user record.
	ErrAlreadyRegistered = errors.New("principal already registered")

	// ErrAlreadyResolved the flagged batch is already in its terminal state.
	ErrAlreadyResolved = errors.New("flagged batch already resolved")

	// ErrInvalidRole the role id was never created.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidPrincipal the principal is null or empty.
	ErrInvalidPrincipal = errors.New("invalid principal")

	// ErrInvalidBatchRef the external batch reference is zero.
	ErrInvalidBatchRef = errors.New("invalid batch reference")

	// ErrEmptyReason a flag was raised without a reason.
	ErrEmptyReason = errors.New("empty reason")

	// ErrNotAnAdmin the target principal is not currently an admin.
	ErrNotAnAdmin = errors.New("not an admin")

	// ErrSelfRevocationDenied admins cannot revoke their own admin status.
	ErrSelfRevocationDenied = errors.New("admins cannot revoke their own admin status")

	// ErrAlreadyBootstrapped the registry was already initialized.
	ErrAlreadyBootstrapped = errors.New("registry already bootstrapped")
)
