// Command proto3json converts protobuf messages between the binary format
// and canonical proto3 JSON using .proto schemas loaded at runtime.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
