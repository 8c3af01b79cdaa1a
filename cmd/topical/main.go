package main

import "github.com/nfrund/topical/cmd/topical/cmd"

func main() {
	cmd.Execute()
}
