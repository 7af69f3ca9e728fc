// Command resultctl runs administrative tasks against the results database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cli := newCommandLine(os.Stdout)
	defer cli.close()

	if err := cli.run(context.Background(), os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
