package main

import "github.com/rprichard/winpty-ship/cmd/ship/internal"

func main() {
	internal.Execute()
}
