package main

import (
	"os"

	"horse.fit/agrolingo/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
