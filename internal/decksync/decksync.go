// Package decksync reconciles registered deck sources with the card store.
// Cards that appear in a deck and not in the store are inserted fresh (nest 1,
// immediately due); cards whose fingerprint vanished from the deck are
// removed. Scheduling state of unchanged cards is never touched.
package decksync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studykeet/internal/deckfmt"
	"studykeet/internal/gitsource"
	"studykeet/internal/storage"
)

// IsGitPath reports whether a source path names a git repository rather than a
// local directory.
func IsGitPath(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// Run reconciles every registered source. Git sources are cloned or pulled
// under reposDir first. Per-source failures are logged and skipped so one bad
// deck does not block the rest.
func Run(ctx context.Context, db *storage.DB, reposDir string) error {
	sources, err := db.GetAllSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no deck sources configured")
		return nil
	}

	if err := os.MkdirAll(reposDir, 0o755); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing deck source", "id", source.ID, "type", source.Type, "path", source.Path)

		deckDir := source.Path
		if source.Type == "git" {
			localPath, err := checkoutPath(reposDir, source.Path)
			if err != nil {
				slog.Error("cannot place checkout for git source", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(ctx, source.Path, localPath); err != nil {
				slog.Error("git sync failed", "url", source.Path, "error", err)
				continue
			}
			deckDir = localPath
		}

		if err := reconcile(ctx, db, source, deckDir); err != nil {
			slog.Error("reconcile failed", "path", source.Path, "error", err)
		}
	}
	return nil
}

func reconcile(ctx context.Context, db *storage.DB, source storage.Source, deckDir string) error {
	known, err := db.SourceFingerprints(ctx, source.ID)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	var inserted, parseErrors int

	walkErr := filepath.WalkDir(deckDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		// Decks without their own S: blocks take the file name as subject.
		defaultSubject := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		cards, parseErr := deckfmt.ParseFile(path, defaultSubject)
		if parseErr != nil {
			parseErrors++
			slog.Warn("deck parse failed", "path", path, "error", parseErr)
			return nil
		}

		for _, card := range cards {
			fp := deckfmt.Fingerprint(card)
			if seen[fp] {
				continue // duplicate within the deck
			}
			seen[fp] = true
			if _, ok := known[fp]; ok {
				continue
			}
			if _, err := db.InsertImportedFlashcard(ctx, card, fp, source.ID); err != nil {
				return fmt.Errorf("insert imported card: %w", err)
			}
			inserted++
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", deckDir, walkErr)
	}

	// A deck that failed to parse contributed nothing to seen, so pruning now
	// would delete its cards and their scheduling state over a transient read
	// failure. Skip deletion for the whole source until every file parses.
	var orphaned int
	if parseErrors == 0 {
		for fp, id := range known {
			if seen[fp] {
				continue
			}
			if err := db.DeleteFlashcard(ctx, id); err != nil {
				slog.Warn("failed to delete orphaned card", "id", id, "error", err)
				continue
			}
			orphaned++
		}
	} else {
		slog.Warn("skipping orphan deletion, some decks failed to parse",
			"path", source.Path, "parse_errors", parseErrors)
	}

	if err := db.UpdateSourceLastScanned(ctx, source.ID, time.Now().UTC()); err != nil {
		slog.Warn("failed to stamp source scan", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"parse_errors", parseErrors,
	)
	return nil
}

// checkoutPath maps a git URL to a stable local directory under baseDir.
func checkoutPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	// scp-like form: git@host:user/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.SplitN(repoURL, ":", 2)
		if len(parts) == 2 {
			hostParts := strings.SplitN(parts[0], "@", 2)
			if len(hostParts) == 2 {
				return filepath.Join(baseDir, hostParts[1], strings.TrimSuffix(parts[1], ".git")), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
