package main

import "pixchat-backend/cmd"

func main() {
	cmd.Run()
}
