//go:build ignore

// Package main generates a synthetic document file for `scout index`.
// Usage: go run scripts/generate-documents.go -docs 10000 -output testdata/bench/articles.yaml
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	numDocs    = flag.Int("docs", 1000, "Number of documents to generate")
	outputFile = flag.String("output", "testdata/bench/articles.yaml", "Output file")
	alias      = flag.String("alias", "article", "Mapping alias the documents belong to")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Word pools for generating realistic titles
var (
	nouns = []string{
		"Handler", "Manager", "Service", "Controller", "Processor",
		"Engine", "Client", "Server", "Worker", "Factory",
		"Cache", "Store", "Queue", "Pool", "Buffer",
		"Router", "Dispatcher", "Scheduler", "Monitor", "Index",
	}
	adjectives = []string{
		"async", "fast", "simple", "advanced", "custom",
		"dynamic", "global", "local", "shared", "concurrent",
	}
	tags = []string{
		"go", "search", "storage", "networking", "concurrency",
		"testing", "tooling", "release", "performance", "design",
	}
	authors = []string{"ada", "grace", "ken", "rob", "barbara", "edsger"}
)

type author struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type article struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	Published string `yaml:"published"`
	Tags      []any  `yaml:"tags"`
	Author    author `yaml:"author"`
}

type documentSet struct {
	Alias     string    `yaml:"alias"`
	Documents []article `yaml:"documents"`
}

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	set := documentSet{Alias: *alias, Documents: make([]article, 0, *numDocs)}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < *numDocs; i++ {
		set.Documents = append(set.Documents, generateArticle(i, start))
	}

	data, err := yaml.Marshal([]documentSet{set})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding documents: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d documents in %s\n", *numDocs, *outputFile)
}

func generateArticle(index int, start time.Time) article {
	name := randomWord(authors)
	a := article{
		ID:        fmt.Sprintf("a%d", index),
		Title:     fmt.Sprintf("The %s %s in practice", randomWord(adjectives), randomWord(nouns)),
		Published: start.AddDate(0, 0, rand.Intn(900)).Format("2006-01-02"),
		Author:    author{Name: strings.ToUpper(name[:1]) + name[1:], Email: name + "@example.com"},
	}
	// Occasional nulls exercise positional collections.
	for n := rand.Intn(4); n >= 0; n-- {
		if rand.Intn(10) == 0 {
			a.Tags = append(a.Tags, nil)
			continue
		}
		a.Tags = append(a.Tags, randomWord(tags))
	}
	return a
}

func randomWord(words []string) string {
	return words[rand.Intn(len(words))]
}
