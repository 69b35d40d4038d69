// Package main provides a generator that extracts CLI and configuration
// metadata from confgen and generates markdown documentation.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=reference -config=testdata/confgen.yaml -outdir=docs/configs
//	go run ./scripts/gendocs -gen=all
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
)

var (
	genFlag    = flag.String("gen", "all", "what to generate: cli, reference, all")
	outDirFlag = flag.String("outdir", "", "output directory (defaults based on gen type)")
	configFlag = flag.String("config", "", "confgen.yaml of the catalog to document (default: testdata/confgen.yaml)")
)

func main() {
	flag.Parse()

	validGenFlags := map[string]bool{"cli": true, "reference": true, "all": true}
	if !validGenFlags[*genFlag] {
		log.Fatalf("unknown -gen value: %s (use: cli, reference, all)", *genFlag)
	}

	// Find project root (where go.mod is)
	projectRoot, err := findProjectRoot()
	if err != nil {
		log.Fatalf("failed to find project root: %v", err)
	}

	log.Printf("Project root: %s", projectRoot)

	configPath := *configFlag
	if configPath == "" {
		configPath = filepath.Join(projectRoot, "testdata", "confgen.yaml")
	}

	switch *genFlag {
	case "cli":
		outDir := *outDirFlag
		if outDir == "" {
			outDir = filepath.Join(projectRoot, "docs", "cli")
		}
		if err := generateCLIDocs(outDir); err != nil {
			log.Fatalf("failed to generate CLI docs: %v", err)
		}

	case "reference":
		outDir := *outDirFlag
		if outDir == "" {
			outDir = filepath.Join(projectRoot, "docs", "configs")
		}
		if err := generateReferenceDocs(outDir, configPath); err != nil {
			log.Fatalf("failed to generate reference docs: %+v", err)
		}

	case "all":
		if err := generateCLIDocs(filepath.Join(projectRoot, "docs", "cli")); err != nil {
			log.Fatalf("failed to generate CLI docs: %v", err)
		}
		if err := generateReferenceDocs(filepath.Join(projectRoot, "docs", "configs"), configPath); err != nil {
			log.Fatalf("failed to generate reference docs: %+v", err)
		}
	}

	log.Println("Done!")
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
