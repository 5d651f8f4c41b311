package main

import "github.com/mobily-enterprises/jsonreststores-3/cmd/jsonreststores/cmd"

func main() {
	cmd.Execute()
}
