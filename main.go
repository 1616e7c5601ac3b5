package main

import "github.com/koukiniwa/ai-kouki-backend/cmd"

func main() {
	cmd.Execute()
}
