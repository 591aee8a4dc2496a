package main

import (
	"os"

	"github.com/user/remedgen/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
