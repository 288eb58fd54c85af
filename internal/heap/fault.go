package heap

import "fmt"

// FaultCode identifies the type of heap fault.
type FaultCode int

// Stable fault codes - do not change values.
const (
	FaultInvalidHandle FaultCode = 2001 // HEAP2001: invalid handle
	FaultUseAfterFree  FaultCode = 2002 // HEAP2002: use after free
	FaultDoubleFree    FaultCode = 2003 // HEAP2003: double free
)

// String returns the code as "HEAP2001" format.
func (c FaultCode) String() string {
	return fmt.Sprintf("HEAP%d", c)
}

// Fault reports a violated heap invariant.
type Fault struct {
	Code    FaultCode
	Handle  Handle
	AllocID uint64
	Message string
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("heap fault %s: %s", f.Code, f.Message)
}
