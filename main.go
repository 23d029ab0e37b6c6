package main

import "github.com/KaramelBytes/chartloom/cmd"

func main() {
	cmd.Execute()
}
