package main

import "vertretungsplan-bot/cmd"

func main() {
	cmd.Execute()
}
