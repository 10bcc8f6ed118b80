// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Command gen-schema writes the API request JSON Schema files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/accelerateai/accelerate/internal/httpapi"
)

func main() {
	outDir := "schemas"
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for name, payload := range httpapi.RequestSchemaTypes() {
		schema, err := httpapi.GenerateSchemaFor(payload, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating schema %s: %v\n", name, err)
			os.Exit(1)
		}

		outPath := filepath.Join(outDir, name+".schema.json")
		if err := os.WriteFile(outPath, schema, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", outPath)
	}
}
