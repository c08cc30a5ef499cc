package synapse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kexec-go/kconfig"
)

func TestIssueProducesPrefixedUniqueTokens(t *testing.T) {
	r := NewRegistry(kconfig.Default())
	seen := make(map[string]bool)
	for pid := 0; pid < 100; pid++ {
		tok := r.Issue(pid)
		require.Regexp(t, `^SYN-`, tok)
		require.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestRotateChangesCurrentTokenOnly(t *testing.T) {
	r := NewRegistry(kconfig.Default())
	original := r.Issue(1)

	rotated, err := r.Rotate(1)
	require.NoError(t, err)
	require.NotEqual(t, original, rotated)

	cur, err := r.Current(1)
	require.NoError(t, err)
	require.Equal(t, rotated, cur)

	// The old token is no longer current, but the registry itself does
	// not track handles -- that snapshot lives in the Object Manager's
	// handle table, outside synapse's responsibility.
	require.False(t, r.Validate(1, original))
	require.True(t, r.Validate(1, rotated))
}

func TestRotateUnknownProcessFails(t *testing.T) {
	r := NewRegistry(kconfig.Default())
	_, err := r.Rotate(999)
	require.Error(t, err)
}

func TestForgetRemovesToken(t *testing.T) {
	r := NewRegistry(kconfig.Default())
	r.Issue(1)
	r.Forget(1)
	_, err := r.Current(1)
	require.Error(t, err)
}
