package main

import (
	"fmt"
	"os"
)

const ErrExitCode = 1

func main() {
	e := &env{}
	err := NewRootCmd(e).Execute()
	e.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(ErrExitCode)
	}
}
