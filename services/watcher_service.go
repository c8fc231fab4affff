package services

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/thiago-gmacedo/keep/models"
)

// NoteWatcherService keeps the collection in sync with a drop directory of
// structured-note JSON files: one file per note, written there by the
// OCR/structuring pipeline. Id derivation makes indexing idempotent, so
// files can be re-scanned freely without duplicate bookkeeping.
type NoteWatcherService struct {
	indexer IndexerService
}

// NewNoteWatcherService creates a new watcher service.
func NewNoteWatcherService(indexer IndexerService) *NoteWatcherService {
	return &NoteWatcherService{indexer: indexer}
}

// WatchDirectory starts a long-running process to index note files as they
// appear or change. Blocks until the context is cancelled.
func (s *NoteWatcherService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isNoteFile(event.Name) {
					continue
				}

				// Editors and the pipeline both write via create-then-write
				// sequences; both event kinds get the same treatment.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: Note file created/modified: %s. Indexing...", event.Name)
					s.indexNoteFile(ctx, event.Name)
				}
				// Removals are ignored: deletion from the collection is an
				// administrative operation, never triggered by the watcher.

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

// ScanAndIndexDirectory indexes every note file currently in the directory.
// Notes already in the collection resolve to the same id and become
// updates.
func (s *NoteWatcherService) ScanAndIndexDirectory(ctx context.Context, dirPath string) {
	log.Printf("WATCHER: Starting directory scan for: %s", dirPath)

	indexed, failed := 0, 0
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isNoteFile(path) {
			return nil
		}
		if s.indexNoteFile(ctx, path) {
			indexed++
		} else {
			failed++
		}
		return nil
	})
	if err != nil {
		log.Printf("WATCHER ERROR: Error walking the path %s: %v", dirPath, err)
	}
	log.Printf("WATCHER: Directory scan finished: %d indexed, %d failed.", indexed, failed)
}

func (s *NoteWatcherService) indexNoteFile(ctx context.Context, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("WATCHER WARN: Could not read note file %s: %v", path, err)
		return false
	}

	var note models.Note
	if err := json.Unmarshal(data, &note); err != nil {
		log.Printf("WATCHER WARN: Note file %s is not valid JSON: %v", path, err)
		return false
	}

	return s.indexer.IndexNote(ctx, note)
}

func isNoteFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}
