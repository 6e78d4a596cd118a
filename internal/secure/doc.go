// Package secure keeps secret values encrypted in memory between the
// bootstrap phases and the moment they are handed to a child process.
//
// Values live in memguard enclaves (XSalsa20Poly1305, mlocked where the
// platform allows it) and are only decrypted into locked buffers while an
// environment is being assembled:
//
//	vault := secure.NewVault()
//	defer vault.Destroy()
//	vault.Put("DATABASE_URL", "postgres://...")
//
//	env, err := vault.Environ()
//
// Callers should still call memguard.Purge at exit to wipe what remains.
//
// This does NOT protect against an attacker with access to the running
// process, nor against the child process itself, which receives plaintext.
package secure
