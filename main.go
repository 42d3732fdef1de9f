package main

import "searchmark/cmd"

func main() {
	cmd.Execute()
}
