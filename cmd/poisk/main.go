package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ddanilov/poisk/internal/cli"
)

func main() {
	// Optional .env in the working directory; absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
