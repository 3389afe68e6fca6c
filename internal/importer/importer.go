// Package importer discovers audio files under the library sources and
// synchronizes them into the catalog.
package importer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/cadenza-player/cadenza/internal/audio"
	"github.com/cadenza-player/cadenza/internal/catalog"
)

// Progress reports the progress of a library scan.
type Progress struct {
	Phase       string // "scanning", "processing", "cleaning", "done"
	Current     int
	Total       int
	CurrentFile string
	Stats       *Stats // only populated when Phase == "done"
}

// Stats holds statistics for a completed scan.
type Stats struct {
	Added   int // new tracks imported
	Kept    int // tracks already in the catalog
	Removed int // tracks whose files disappeared
	Pruned  int // playlist entries orphaned by removals
}

// Catalog is the slice of the store the importer needs.
type Catalog interface {
	LoadTracks() ([]catalog.Track, error)
	SaveTracks(tracks []catalog.Track) error
	DeleteTracksNotIn(keep map[string]bool) (int, error)
	PrunePlaylistOrphans() (int, error)
}

// Importer synchronizes the catalog with the files on disk. Existing
// records are matched by media path so play counts and favorites
// survive a rescan.
type Importer struct {
	store Catalog
}

func New(store Catalog) *Importer {
	return &Importer{store: store}
}

// Run scans the source directories and reconciles the catalog. Progress
// may be nil; when given it is closed before Run returns.
func (im *Importer) Run(sources []string, progress chan<- Progress) (*Stats, error) {
	if progress != nil {
		defer close(progress)
	}
	stats := &Stats{}

	send(progress, Progress{Phase: "scanning"})
	files := discover(sources, progress)

	existing, err := im.store.LoadTracks()
	if err != nil {
		return nil, err
	}
	byMedia := make(map[string]catalog.Track, len(existing))
	for _, t := range existing {
		byMedia[t.Media] = t
	}

	var added []catalog.Track
	keep := make(map[string]bool, len(files))
	for i, path := range files {
		keep[path] = true
		send(progress, Progress{Phase: "processing", Current: i + 1, Total: len(files), CurrentFile: path})

		if _, ok := byMedia[path]; ok {
			stats.Kept++
			continue
		}
		added = append(added, readTrack(path))
		stats.Added++
	}
	if len(added) > 0 {
		if err := im.store.SaveTracks(added); err != nil {
			return nil, err
		}
	}

	send(progress, Progress{Phase: "cleaning"})
	removed, err := im.store.DeleteTracksNotIn(keep)
	if err != nil {
		return nil, err
	}
	stats.Removed = removed

	pruned, err := im.store.PrunePlaylistOrphans()
	if err != nil {
		return nil, err
	}
	stats.Pruned = pruned

	send(progress, Progress{Phase: "done", Current: len(files), Total: len(files), Stats: stats})
	return stats, nil
}

// discover walks the source directories and returns all playable files.
func discover(sources []string, progress chan<- Progress) []string {
	var files []string
	for _, src := range sources {
		_ = filepath.WalkDir(src, func(path string, d os.DirEntry, walkErr error) error {
			// Skip walk errors - intentionally continuing to scan other paths
			if walkErr != nil {
				return nil //nolint:nilerr // intentionally skipping errors
			}
			if d.IsDir() || !audio.IsPlayable(path) {
				return nil
			}

			files = append(files, path)
			if len(files)%100 == 0 {
				send(progress, Progress{Phase: "scanning", Current: len(files)})
			}
			return nil
		})
	}
	return files
}

// readTrack builds a catalog record from a file's embedded tags. Files
// with unreadable tags fall back to the filename, never fail the scan.
func readTrack(path string) catalog.Track {
	t := catalog.Track{
		ID:    uuid.NewString(),
		Title: titleFromFilename(path),
		Media: path,
	}

	if f, err := os.Open(path); err == nil {
		if m, err := tag.ReadFrom(f); err == nil {
			if m.Title() != "" {
				t.Title = m.Title()
			}
			t.Artist = m.Artist()
			if g := m.Genre(); g != "" {
				t.Tags = []string{strings.ToLower(g)}
			}
			if pic := m.Picture(); pic != nil {
				t.Artwork = path
			}
		}
		f.Close()
	}

	if d, err := audio.ProbeDuration(path); err == nil {
		t.Duration = d
	}
	return t
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func send(progress chan<- Progress, p Progress) {
	if progress != nil {
		progress <- p
	}
}
