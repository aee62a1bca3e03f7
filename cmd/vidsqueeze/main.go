package main

import (
	_ "vidsqueeze/internal/command/doctor"
	_ "vidsqueeze/internal/command/probecmd"
	"vidsqueeze/internal/command/root"
)

func main() {
	root.Execute()
}
