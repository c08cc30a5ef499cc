package ob

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kexec-go/kconfig"
	"kexec-go/kerrors"
)

type fakeEventBody struct {
	hdr *DispatchHeader
}

func (f *fakeEventBody) TypeTag() ObjectType    { return TypeEvent }
func (f *fakeEventBody) Header() *DispatchHeader { return f.hdr }

type fakeReleasableBody struct {
	fakeEventBody
	released bool
}

func (f *fakeReleasableBody) Release() { f.released = true }

func newTestManager() *Manager {
	return NewManager(kconfig.Default())
}

func TestCreateAndInsertLookup(t *testing.T) {
	m := newTestManager()
	obj := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})
	require.Equal(t, 1, obj.RefCount)

	require.NoError(t, m.Insert(obj, `\Device\Test1`))
	got, err := m.Lookup(`\Device\Test1`)
	require.NoError(t, err)
	require.Same(t, obj, got)
}

func TestInsertDuplicateNameFails(t *testing.T) {
	m := newTestManager()
	a := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})
	b := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})
	require.NoError(t, m.Insert(a, `\Device\Dup`))
	require.Error(t, m.Insert(b, `\Device\Dup`))
}

func TestLookupMissingFails(t *testing.T) {
	m := newTestManager()
	_, err := m.Lookup(`\Device\Nope`)
	require.Error(t, err)
}

func TestHandleUniqueness(t *testing.T) {
	m := newTestManager()
	obj := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		tok, err := m.CreateHandle(1, obj, AccessAll, "SYN-a")
		require.NoError(t, err)
		require.False(t, seen[tok], "handle token reused: %s", tok)
		seen[tok] = true
		require.Regexp(t, `^H-`, tok)
	}
}

func TestSynapseIsolation(t *testing.T) {
	m := newTestManager()
	obj := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})
	tok, err := m.CreateHandle(100, obj, AccessAll, "SYN-owner")
	require.NoError(t, err)

	// Same process, wrong current synapse token -> denied (ring 3, high pid).
	_, err = m.ReferenceByHandle(100, tok, AccessRead, "SYN-other", 3)
	require.Error(t, err)
	require.True(t, kerrors.IsKind(err, kerrors.ErrAccessDenied))

	// Correct synapse token succeeds.
	got, err := m.ReferenceByHandle(100, tok, AccessRead, "SYN-owner", 3)
	require.NoError(t, err)
	require.Same(t, obj, got)

	// Ring 0 bypasses the synapse check even with the wrong token.
	_, err = m.ReferenceByHandle(100, tok, AccessRead, "SYN-wrong", 0)
	require.NoError(t, err)
}

func TestBypassThresholdPid(t *testing.T) {
	m := newTestManager()
	obj := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})
	tok, err := m.CreateHandle(1, obj, AccessAll, "SYN-a")
	require.NoError(t, err)

	// pid 1 is below the default bypass threshold (8), so mismatched
	// synapse tokens still succeed.
	_, err = m.ReferenceByHandle(1, tok, AccessRead, "SYN-mismatched", 3)
	require.NoError(t, err)
}

func TestAccessMaskDenied(t *testing.T) {
	m := newTestManager()
	obj := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})
	tok, err := m.CreateHandle(100, obj, AccessRead, "SYN-a")
	require.NoError(t, err)

	_, err = m.ReferenceByHandle(100, tok, AccessWrite, "SYN-a", 3)
	require.Error(t, err)
}

func TestCloseHandleRunsReleaseAtZeroRefs(t *testing.T) {
	m := newTestManager()
	body := &fakeReleasableBody{fakeEventBody: fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)}}
	obj := m.Create(body)
	tok, err := m.CreateHandle(1, obj, AccessAll, "SYN-a")
	require.NoError(t, err)

	require.NoError(t, m.CloseHandle(1, tok))
	require.True(t, body.released)
	require.LessOrEqual(t, obj.RefCount, 0)
}

func TestCloseHandleIdempotent(t *testing.T) {
	m := newTestManager()
	obj := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})
	tok, err := m.CreateHandle(1, obj, AccessAll, "SYN-a")
	require.NoError(t, err)

	require.NoError(t, m.CloseHandle(1, tok))
	require.Error(t, m.CloseHandle(1, tok))
}

func TestCloseAllHandlesOnExit(t *testing.T) {
	m := newTestManager()
	body := &fakeReleasableBody{fakeEventBody: fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)}}
	obj := m.Create(body)
	_, err := m.CreateHandle(5, obj, AccessAll, "SYN-a")
	require.NoError(t, err)

	m.CloseAllHandles(5)
	require.True(t, body.released)
}

func TestDumpDirectoryRequiresPrivilege(t *testing.T) {
	m := newTestManager()
	obj := m.Create(&fakeEventBody{hdr: NewDispatchHeader(TypeEvent, true, false)})
	require.NoError(t, m.Insert(obj, `\Device\A`))

	_, err := m.DumpDirectory(3)
	require.Error(t, err)

	paths, err := m.DumpDirectory(0)
	require.NoError(t, err)
	require.Contains(t, paths, `/Device/A`)
}
