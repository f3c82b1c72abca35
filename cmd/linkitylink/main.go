package main

import (
	"context"
	"log"

	"github.com/planet-nine-app/linkitylink/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("❌ linkitylink failed: %v", err)
	}
}
