package main

import "moodtune/cmd"

func main() {
	cmd.Execute()
}
