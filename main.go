package main

import "social-chat-backend/cmd"

func main() {
	cmd.Run()
}
