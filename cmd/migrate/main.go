package main

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"stashbox/internal/platform/config"
	"stashbox/internal/platform/database"
)

// Applies every .sql file under internal/domain/repository/migrations in
// lexical order. The DDL is idempotent, so rerunning is safe.
func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	basePath := filepath.Join(".", "internal", "domain", "repository", "migrations")
	entries, err := os.ReadDir(basePath)
	if err != nil {
		log.Fatalf("Failed to read migrations dir: %v", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(basePath, name))
		if err != nil {
			log.Fatalf("Failed to read %s: %v", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			log.Fatalf("Failed to execute %s: %v", name, err)
		}
		log.Printf("Applied %s", name)
	}
}
