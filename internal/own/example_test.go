package own_test

import (
	"errors"
	"fmt"

	"ownlab/internal/own"
)

func Example() {
	root := own.NewTracker().Root()
	defer root.Close()

	s1, _ := root.Create("s1", "hello")
	s2, _ := root.Clone("s2", s1, own.Mut())
	_ = s2.Append(" world")
	a, _ := s1.Text()
	b, _ := s2.Text()
	fmt.Println(a, "|", b)

	s3, _ := root.Move("s3", s1)
	_, err := s1.Text()
	fmt.Println(s3.Name(), errors.Is(err, own.ErrUseAfterMove))
	// Output:
	// hello | hello world
	// s3 true
}

func ExampleEventLog() {
	log := &own.EventLog{}
	root := own.NewTracker(own.WithSink(log)).Root()
	s, _ := root.Create("s", "hello", own.Mut())
	inner := root.Enter("inner")
	r, _ := inner.BorrowExclusive(s)
	_ = r.Append("!")
	_ = inner.Close()
	_ = root.Close()
	for _, ev := range log.Events() {
		fmt.Println(ev)
	}
	// Output:
	// scope_enter [root]
	// create s "hello"
	//   scope_enter [inner]
	//   borrow_start s &mut#1
	//   write s &mut#1 "!"
	//   borrow_end s &mut#1
	//   scope_exit [inner]
	// release s
	// scope_exit [root]
}
