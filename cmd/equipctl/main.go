package main

import "equipmarket/cmd/equipctl/commands"

func main() {
	commands.Execute()
}
