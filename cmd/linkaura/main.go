package main

import "github.com/linkaura/linkaura/cmd/linkaura/cmd"

func main() {
	cmd.Execute()
}
