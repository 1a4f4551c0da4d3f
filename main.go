package main

import "github.com/josephlewis42/clam/cmd"

func main() {
	cmd.Execute()
}
