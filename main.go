package main

import "github.com/kambejat/undiziwa/cmd"

func main() {
	cmd.Execute()
}
