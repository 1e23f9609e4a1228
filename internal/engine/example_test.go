package engine_test

import (
	"fmt"

	"github.com/five82/logscope/internal/engine"
)

func Example() {
	eng := engine.New()

	// The host writes each chunk straight into engine storage.
	for _, chunk := range []string{"first line\r", "\nsecond", " line\nthird"} {
		region, err := eng.Reserve(len(chunk))
		if err != nil {
			panic(err)
		}
		n := copy(region, chunk)
		if err := eng.Commit(n); err != nil {
			panic(err)
		}
	}

	fmt.Println(eng.LineCount())
	fmt.Printf("%q\n", eng.Lines(0, 10))
	fmt.Println(eng.Search([]byte("line")))
	// Output:
	// 3
	// ["first line" "second line" "third"]
	// [0 1]
}

func ExampleEngine_Clear() {
	eng := engine.New()
	_, _ = eng.Write([]byte("a\nb\n"))
	eng.Clear()
	fmt.Println(eng.LineCount(), eng.Len())
	// Output: 0 0
}
