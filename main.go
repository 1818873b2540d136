package main

import (
	"context"
	"os"

	"github.com/yaklabco/ripple/cmd/ripple"
)

func main() {
	os.Exit(actualMain())
}

func actualMain() int {
	ctx := context.Background()

	rootCmd := ripple.NewRootCmd(ctx)

	// fang prints the error.
	if err := ripple.ExecuteWithFang(ctx, rootCmd); err != nil {
		return 1
	}

	return 0
}
