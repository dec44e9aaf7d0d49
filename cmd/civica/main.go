package main

import (
	"os"

	"horse.fit/civica/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
