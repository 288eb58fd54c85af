// Package own is a runtime-checked ownership model for heap-backed text values.
//
// A Tracker owns the heap and the borrow table. Scopes nest lexically;
// every owned binding belongs to exactly one scope and is released when that
// scope closes. Moving a value creates a new binding and leaves the source
// moved-out. Borrows are either shared (any number, read-only) or exclusive
// (one, read-write) and end when the scope they were created in closes.
//
// Violations are reported immediately as *Error values carrying a diag.Code;
// errors.Is matches them against ErrUseAfterMove, ErrBorrowConflict and
// ErrDanglingReference.
//
//	root := own.NewTracker().Root()
//	defer root.Close()
//	s1, _ := root.Create("s1", "hello")
//	s2, _ := root.Move("s2", s1)
//	_, err := s1.Text() // errors.Is(err, own.ErrUseAfterMove)
package own
