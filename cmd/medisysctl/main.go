package main

import "github.com/strelizia53/medisys-sheroll-aws/cmd/medisysctl/cmd"

func main() {
	cmd.Execute()
}
