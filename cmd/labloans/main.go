package main

import (
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
