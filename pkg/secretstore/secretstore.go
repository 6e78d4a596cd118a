package secretstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a secret store backend.
//
// The set is closed: Secrets Manager and Parameter Store. Configuration text
// is mapped onto it with ParseKind, which never fails.
type Kind string

const (
	// SecretsManager stores all managed secrets of a deployment in a single
	// JSON document keyed by stage and project.
	SecretsManager Kind = "sm"

	// ParameterStore stores managed secrets as a parameter hierarchy under
	// "/{pocket key}/".
	ParameterStore Kind = "ssm"
)

// ParseKind maps configuration text onto a Kind. "ssm" selects
// ParameterStore; every other value, including the empty string, selects
// SecretsManager.
func ParseKind(s string) Kind {
	if s == string(ParameterStore) {
		return ParameterStore
	}
	return SecretsManager
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Scope addresses the bulk secret document of one deployment.
//
// Key is the expanded pocket key (for example "dev-myapp-pocket"). Stage and
// Project select the entry inside a Secrets Manager document; Parameter Store
// ignores them because the key already encodes both.
type Scope struct {
	Key     string
	Stage   string
	Project string
}

// Store is the capability contract every secret backend implements.
//
// Implementations must be safe for concurrent use and must never log secret
// values. Failures are reported as *BackendError so callers can branch on the
// reason with errors.Is:
//
//	raw, err := store.BulkFetch(ctx, scope)
//	switch {
//	case errors.Is(err, secretstore.ErrNotFound):
//	    raw = map[string]any{}
//	case errors.Is(err, secretstore.ErrInvalidState):
//	    // restore, then retry once
//	case err != nil:
//	    return err
//	}
type Store interface {
	// Kind reports which backend this store talks to.
	Kind() Kind

	// BulkFetch returns the raw managed secret mapping for scope. Values are
	// either strings or map[string]any objects; the caller decides how to
	// flatten them. A document that exists but has no entry for the scope
	// yields an empty map and no error.
	BulkFetch(ctx context.Context, scope Scope) (map[string]any, error)

	// FetchOne returns the plaintext of a single, explicitly named secret.
	FetchOne(ctx context.Context, name string) (string, error)

	// Restore undoes a pending deletion of the named secret. Backends without
	// a deletion window return an error matching ErrUnsupported.
	Restore(ctx context.Context, name string) error
}

// Opener yields a Store for a backend kind in a region.
type Opener interface {
	Open(ctx context.Context, kind Kind, region string) (Store, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, kind Kind, region string) (Store, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, kind Kind, region string) (Store, error) {
	return f(ctx, kind, region)
}

// Failure reasons carried by BackendError.
var (
	// ErrNotFound means the addressed secret does not exist.
	ErrNotFound = errors.New("secret not found")

	// ErrInvalidState means the secret exists but cannot be read right now,
	// typically because it is scheduled for deletion.
	ErrInvalidState = errors.New("secret is in an invalid state")

	// ErrUnsupported means the backend has no such operation.
	ErrUnsupported = errors.New("operation not supported by store")
)

// BackendError describes a failed store operation.
//
// Reason, when set, is one of the package sentinels and is matched by
// errors.Is. Err is the underlying SDK or transport error and is reachable
// with errors.As / errors.Unwrap.
//
// Example:
//
//	return nil, &secretstore.BackendError{
//	    Store:  secretstore.SecretsManager,
//	    Op:     "GetSecretValue",
//	    Key:    scope.Key,
//	    Reason: secretstore.ErrNotFound,
//	    Err:    err,
//	}
type BackendError struct {
	// Store is the backend that failed.
	Store Kind

	// Op is the backend operation, e.g. "GetSecretValue".
	Op string

	// Key is the secret name or pocket key involved. Never a secret value.
	Key string

	// Reason classifies the failure; nil when it fits no sentinel.
	Reason error

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Store, e.Op)
	if e.Key != "" {
		fmt.Fprintf(&b, " %q", e.Key)
	}
	b.WriteString(" failed")
	if e.Reason != nil {
		fmt.Fprintf(&b, ": %v", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the failure reason.
func (e *BackendError) Is(target error) bool {
	return e.Reason != nil && target == e.Reason
}
