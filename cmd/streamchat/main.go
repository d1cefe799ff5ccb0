package main

import "github.com/diogo/streamchat/internal/commands"

func main() {
	commands.Execute()
}
