// Package synapse implements the sMLTR token layer: a per-process secret
// generated at spawn, rotatable by Ring 0-1, and checked on every handle
// use via the Object Manager.
package synapse

import (
	"sync"

	"github.com/google/uuid"

	"kexec-go/kconfig"
	"kexec-go/kerrors"
)

// Registry tracks the current synapse token for every live process.
// Rotation only rewrites the current token — handles created earlier
// keep the snapshot they were issued with, so rotation binds new trust
// rather than revoking already-granted handles.
type Registry struct {
	mu     sync.Mutex
	tokens map[int]string
	prefix string
}

// NewRegistry builds an empty synapse token registry.
func NewRegistry(cfg kconfig.Config) *Registry {
	cfg = cfg.WithDefaults()
	return &Registry{tokens: make(map[int]string), prefix: cfg.SynapseTokenPrefix}
}

func (r *Registry) newToken() string {
	return r.prefix + uuid.NewString()
}

// Issue generates a fresh synapse token for pid, overwriting any prior
// one. Used at process spawn.
func (r *Registry) Issue(pid int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok := r.newToken()
	r.tokens[pid] = tok
	return tok
}

// Current returns pid's current synapse token.
func (r *Registry) Current(pid int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[pid]
	if !ok {
		return "", kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "synapse_current", pid)
	}
	return tok, nil
}

// Rotate replaces pid's current token with a freshly generated one and
// returns it. Callers must be Ring 0-1; that check is the kernel's
// responsibility, not the registry's — this type only tracks tokens.
func (r *Registry) Rotate(pid int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[pid]; !ok {
		return "", kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "synapse_rotate", pid)
	}
	tok := r.newToken()
	r.tokens[pid] = tok
	return tok, nil
}

// Forget removes pid's token, e.g. on process exit.
func (r *Registry) Forget(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, pid)
}

// Validate reports whether candidate equals pid's current token.
func (r *Registry) Validate(pid int, candidate string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[pid] == candidate
}
