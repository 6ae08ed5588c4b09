package main

import (
	"os"

	"github.com/keevingness/image-mirror/cmd"
)

// version变量，将在构建时通过-ldflags注入
var version = "dev"

func main() {
	os.Exit(cmd.Execute(version))
}
