// Package scanner watches a drop directory for card photos, identifies
// them, resolves the exact printing, and adds the result to the
// collection.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cardbinder/cardbinder/internal/cards"
	"github.com/cardbinder/cardbinder/internal/events"
	"github.com/cardbinder/cardbinder/internal/storage/models"
	"github.com/cardbinder/cardbinder/internal/vision"
)

// Identifier recognizes a card from a photo.
type Identifier interface {
	Identify(ctx context.Context, image []byte) (*vision.Identification, error)
}

// CardFinder resolves identifications to full card records.
type CardFinder interface {
	Search(ctx context.Context, query string) ([]models.CardRecord, error)
	Named(ctx context.Context, name string, fuzzy bool) (*models.CardRecord, error)
}

// CollectionAdder receives resolved cards.
type CollectionAdder interface {
	AddCard(card models.CardRecord)
}

// Config contains drop-directory scanner settings.
type Config struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	// SettleDelay is how long to wait after the last write event before
	// reading a file, so partially-copied images are not picked up.
	SettleDelay string `toml:"settle_delay"`
}

// DefaultConfig returns scanner defaults with the drop directory under
// the user's home.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Enabled:     false,
		Dir:         filepath.Join(home, ".cardbinder", "scans"),
		SettleDelay: "500ms",
	}
}

// Scanner runs the photo-to-collection pipeline.
type Scanner struct {
	dir         string
	settleDelay time.Duration
	identifier  Identifier
	finder      CardFinder
	adder       CollectionAdder
	dispatcher  *events.Dispatcher
	stopChan    chan struct{}
}

// New creates a Scanner for the given drop directory.
func New(config *Config, identifier Identifier, finder CardFinder, adder CollectionAdder, dispatcher *events.Dispatcher) (*Scanner, error) {
	settle := 500 * time.Millisecond
	if config.SettleDelay != "" {
		d, err := time.ParseDuration(config.SettleDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid settle delay %q: %w", config.SettleDelay, err)
		}
		if d < 10*time.Millisecond {
			d = 10 * time.Millisecond
		}
		settle = d
	}
	return &Scanner{
		dir:         config.Dir,
		settleDelay: settle,
		identifier:  identifier,
		finder:      finder,
		adder:       adder,
		dispatcher:  dispatcher,
		stopChan:    make(chan struct{}),
	}, nil
}

// Start watches the drop directory until the context is cancelled or
// Stop is called. The directory is created if it does not exist.
func (s *Scanner) Start(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scan directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch scan directory: %w", err)
	}

	log.Printf("[Scanner] watching %s", s.dir)

	// Pending files keyed by path with their last event time, drained
	// once they have settled.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(s.settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopChan:
			return nil
		case event := <-watcher.Events:
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && isImageFile(event.Name) {
				pending[event.Name] = time.Now()
			}
		case err := <-watcher.Errors:
			log.Printf("[Scanner] watcher error: %v", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < s.settleDelay {
					continue
				}
				delete(pending, path)
				s.processFile(ctx, path)
			}
		}
	}
}

// Stop terminates the watch loop.
func (s *Scanner) Stop() {
	close(s.stopChan)
}

// ProcessImage runs the identification pipeline on raw image bytes and
// returns the resolved card. Used by the scan upload endpoint and the
// directory watcher alike.
func (s *Scanner) ProcessImage(ctx context.Context, image []byte) (*models.CardRecord, error) {
	ident, err := s.identifier.Identify(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to identify card: %w", err)
	}

	card, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("no printing found for %q", ident.Name)
	}

	s.adder.AddCard(*card)
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(events.Event{Type: events.TypeScanIdentified, Data: card})
	}
	return card, nil
}

// resolve finds the exact printing when set code and collector number are
// known, falling back to a fuzzy name lookup.
func (s *Scanner) resolve(ctx context.Context, ident *vision.Identification) (*models.CardRecord, error) {
	if ident.SetCode != "" && ident.CollectorNumber != "" {
		query := cards.PreciseQuery(ident.Name, ident.SetCode, ident.CollectorNumber)
		results, err := s.finder.Search(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to look up printing: %w", err)
		}
		if len(results) > 0 {
			return &results[0], nil
		}
	}
	return s.finder.Named(ctx, ident.Name, true)
}

func (s *Scanner) processFile(ctx context.Context, path string) {
	image, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Scanner] failed to read %s: %v", path, err)
		return
	}

	card, err := s.ProcessImage(ctx, image)
	if err != nil {
		if errors.Is(err, vision.ErrNoCard) {
			log.Printf("[Scanner] no card detected in %s", filepath.Base(path))
		} else {
			log.Printf("[Scanner] failed to process %s: %v", filepath.Base(path), err)
		}
		return
	}

	log.Printf("[Scanner] added %s (%s #%s)", card.Name, card.SetCode, card.CollectorNumber)

	if err := os.Remove(path); err != nil {
		log.Printf("[Scanner] failed to remove processed file %s: %v", path, err)
	}
}

func isImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}
