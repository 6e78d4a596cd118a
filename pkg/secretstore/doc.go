// Package secretstore defines the contract between the secrets orchestrator
// and the backends that hold secret material.
//
// # Overview
//
// A deployment keeps two kinds of secrets:
//
//   - Managed secrets live together under one pocket key and are read with a
//     single BulkFetch call. Their raw values are strings or small JSON
//     objects (for example a PEM key pair) that the orchestrator expands into
//     environment entries.
//   - User secrets are individually named and read with FetchOne.
//
// Two backends implement Store:
//
//	Kind            Bulk layout
//	──────────────  ─────────────────────────────────────────────────
//	SecretsManager  one secret named {key}, JSON {stage: {project: {...}}}
//	ParameterStore  parameters under /{key}/NAME and /{key}/NAME/FIELD
//
// # Error Model
//
// Every backend failure is a *BackendError. Its Reason is one of ErrNotFound,
// ErrInvalidState or ErrUnsupported, or nil when the failure fits none of
// them. errors.Is matches the reason and errors.As reaches both the
// BackendError and the underlying SDK error:
//
//	var be *secretstore.BackendError
//	if errors.As(err, &be) {
//	    log.Printf("store=%s op=%s key=%s", be.Store, be.Op, be.Key)
//	}
//
// The Secrets Manager fallback rules (treat a missing document as empty,
// restore and retry a document pending deletion) are applied by the
// orchestrator, not by the stores.
//
// # Security
//
// Implementations must not log or embed secret values in errors. Key holds
// names and pocket keys only.
//
// # Implementations
//
// AWS-backed stores live in internal/providers. Tests use the in-memory
// fakes in tests/fakes.
package secretstore
