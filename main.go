package main

import (
	"embed"
	"os"

	"github.com/msalah0e/zappy/cmd"
)

//go:embed catalog/*.toml
var catalogFS embed.FS

func main() {
	cmd.SetCatalogFS(catalogFS)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
