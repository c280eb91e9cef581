package main

import "github.com/MeKo-Tech/screenmark/cmd/screenmark/cmd"

func main() {
	cmd.Execute()
}
