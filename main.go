package main

import "github.com/KaramelBytes/agsloom/cmd"

func main() {
	cmd.Execute()
}
