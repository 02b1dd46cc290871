package main

import "github.com/bkern/mqttpki/cmd/mqttpki/cmd"

func main() {
	cmd.Execute()
}
