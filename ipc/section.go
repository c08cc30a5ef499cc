package ipc

import "kexec-go/ob"

// Section is a named, fixed-size shared container. Map returns a direct
// reference so mapping processes observe each other's writes;
// synchronization across writers is the callers' responsibility
// (typically via a companion mutex), not this type's.
type Section struct {
	Name string
	Data []byte
}

// NewSection creates a zero-filled section of the given size.
func NewSection(name string, size int) *Section {
	return &Section{Name: name, Data: make([]byte, size)}
}

func (s *Section) TypeTag() ob.ObjectType { return ob.TypeSection }

// Map returns the live backing slice. Callers sharing a handle to the
// same *Section observe each other's writes through this same slice.
func (s *Section) Map() []byte {
	return s.Data
}
