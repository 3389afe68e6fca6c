// Command mediascan synchronizes the catalog with the music files on
// disk. Sources come from the command line, or from the config file
// when none are given.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cadenza-player/cadenza/internal/catalog"
	"github.com/cadenza-player/cadenza/internal/config"
	"github.com/cadenza-player/cadenza/internal/importer"
)

func main() {
	dbPath := flag.String("db", "", "catalog database path (default: XDG data dir)")
	quiet := flag.Bool("quiet", false, "only print the final summary")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sources := flag.Args()
	if len(sources) == 0 {
		sources = cfg.LibrarySources
	}
	if len(sources) == 0 {
		log.Fatal("No sources: pass directories as arguments or set library_sources in config.toml")
	}

	path := *dbPath
	if path == "" {
		path = cfg.DatabasePath
	}
	store, err := catalog.Open(path)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer store.Close()

	progress := make(chan importer.Progress)
	go func() {
		for p := range progress {
			if *quiet {
				continue
			}
			switch p.Phase {
			case "scanning":
				if p.Current > 0 {
					log.Printf("Scanning... %s files found", humanize.Comma(int64(p.Current)))
				}
			case "processing":
				if p.Current%100 == 0 || p.Current == p.Total {
					log.Printf("Processing %s/%s: %s",
						humanize.Comma(int64(p.Current)), humanize.Comma(int64(p.Total)), p.CurrentFile)
				}
			case "cleaning":
				log.Println("Removing records for vanished files...")
			}
		}
	}()

	started := time.Now()
	stats, err := importer.New(store).Run(sources, progress)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	log.Printf("Done in %s: %s added, %s kept, %s removed, %s playlist entries pruned",
		humanize.RelTime(started, time.Now(), "", ""),
		humanize.Comma(int64(stats.Added)),
		humanize.Comma(int64(stats.Kept)),
		humanize.Comma(int64(stats.Removed)),
		humanize.Comma(int64(stats.Pruned)))
}
