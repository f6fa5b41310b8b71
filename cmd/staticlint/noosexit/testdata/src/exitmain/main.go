package main

import (
	"os"
	sys "os"
)

var exit = os.Exit

func main() {
	os.Exit(1) // want "использование os.Exit в main запрещено"

	defer func() {
		sys.Exit(2) // want "использование os.Exit в main запрещено"
	}()

	exit(3)
	helper()
}

func helper() {
	os.Exit(4)
}
