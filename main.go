package main

import "github.com/papapumpkin/ddk/cmd"

func main() {
	cmd.Execute()
}
