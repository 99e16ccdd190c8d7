package main

import (
	"fmt"
	"os"

	"github.com/imoto-rec-git/sns-like-app/internal/hookctl"
)

func main() {
	if err := hookctl.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hookctl:", err)
		os.Exit(1)
	}
}
