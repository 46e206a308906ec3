// cmd/enrich — batch indicator enrichment CLI.
//
// Reads a JSON array of price points ({"date":"...","value":N,...}) from a
// file or stdin, annotates each point with SMA(20) and Wilder RSI(14), and
// writes the enriched array to stdout.
//
// Usage:
//
//	enrich -in series.json
//	cat series.json | enrich
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"chartfeed/internal/enrich"
	"chartfeed/internal/model"
)

func main() {
	log.SetFlags(0)
	inPath := flag.String("in", "", "input JSON file (default: stdin)")
	indent := flag.Bool("indent", false, "pretty-print output")
	flag.Parse()

	var r io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			log.Fatalf("enrich: %v", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		log.Fatalf("enrich: read input: %v", err)
	}

	var points []model.PricePoint
	if err := json.Unmarshal(data, &points); err != nil {
		log.Fatalf("enrich: parse input: %v", err)
	}

	enriched := enrich.Enrich(points)

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(enriched); err != nil {
		log.Fatalf("enrich: write output: %v", err)
	}
}
