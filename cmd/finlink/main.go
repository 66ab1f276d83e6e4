// Command finlink runs the entity-resolution engine as a batch worker.
// Ingestion adapters hand it source items either one-at-a-time via flags or
// as a JSONL stream; it links them to canonical assets and records the links.
//
//	finlink -mode resolve -source-type news -id n-1 -title "Apple news" -content "US0378331005 rallied"
//	finlink -mode resolve -items items.jsonl
//	finlink -mode backfill
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finlink/finlink-api/internal/app"
	"github.com/finlink/finlink-api/internal/config"
	"github.com/finlink/finlink-api/internal/database"
)

// Item is one source item on the JSONL input.
type Item struct {
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"`
	Content    string `json:"text_content"`
	Title      string `json:"text_title,omitempty"`
}

func main() {
	mode := flag.String("mode", "resolve", "resolve or backfill")
	itemsPath := flag.String("items", "", "path to a JSONL file of items to resolve")
	sourceType := flag.String("source-type", "", "source type of the single item")
	sourceID := flag.String("id", "", "source id of the single item")
	content := flag.String("content", "", "text content of the single item")
	title := flag.String("title", "", "text title of the single item (optional)")
	flag.Parse()

	log.Println("Starting FinLink resolution worker...")
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	switch *mode {
	case "backfill":
		n, err := a.Backfiller.Backfill(ctx, nil)
		if err != nil {
			log.Fatalf("Backfill failed: %v", err)
		}
		log.Printf("Backfill complete: %d embeddings computed.", n)

	case "resolve":
		var items []Item
		if *itemsPath != "" {
			items, err = readItems(*itemsPath)
			if err != nil {
				log.Fatalf("Failed to read items: %v", err)
			}
		} else {
			items = []Item{{SourceID: *sourceID, SourceType: *sourceType, Content: *content, Title: *title}}
		}
		if err := Run(ctx, cfg, a, items); err != nil {
			log.Fatalf("Worker failed: %v", err)
		}

	default:
		log.Fatalf("Unknown mode %q", *mode)
	}
}

// Run resolves items concurrently. Exposed for testing.
func Run(ctx context.Context, cfg *config.Config, a *app.App, items []Item) error {
	if len(items) == 0 {
		log.Println("No items to resolve. Exiting.")
		return nil
	}
	log.Printf("Resolving %d items (concurrency %d)...", len(items), cfg.WorkerConcurrency)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.WorkerConcurrency)

	for _, item := range items {
		g.Go(func() error {
			res, err := a.Resolver.Resolve(ctx, item.SourceID, database.SourceType(item.SourceType), item.Content, item.Title)
			if err != nil {
				log.Printf("Error resolving %s %q: %v", item.SourceType, item.SourceID, err)
				return nil
			}
			if res.PersistErr != nil {
				log.Printf("Warning: %s %q resolved but links not persisted: %v", item.SourceType, item.SourceID, res.PersistErr)
			}
			for assetID, match := range res.Matches {
				log.Printf("Linked %s %q -> asset %d (%s, score %.3f)", item.SourceType, item.SourceID, assetID, match.Method, match.Score)
			}
			if len(res.Matches) == 0 {
				log.Printf("No matches for %s %q", item.SourceType, item.SourceID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Println("Batch resolution complete. Exiting.")
	return nil
}

func readItems(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var items []Item
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
	return items, scanner.Err()
}
