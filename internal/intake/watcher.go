// Package intake watches a drop directory where tools leave their results
// and publishes each recognized file as a marker set.
package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/changsongyang/markerd/internal/marker"
	"github.com/changsongyang/markerd/internal/parser"
)

// Publisher publishes marker sets produced by external tools.
type Publisher interface {
	Publish(ctx context.Context, set marker.Set) error
}

// Watch starts an fsnotify watcher on the drop directory and publishes
// recognized files until ctx is cancelled. *.json files carry the native
// set format; *.log, *.txt and *.out files are parsed as text diagnostics
// with the file's base name as the set name.
//
// A content checksum per file suppresses republish when a tool rewrites a
// file with identical output. Bad input never stops the watcher: read and
// parse failures are logged and the file is retried on its next event.
func Watch(ctx context.Context, dir string, pub Publisher, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("intake: started", slog.String("dir", dir))

	// seen maps file path to the checksum of its last published content.
	seen := make(map[string]string)

	for {
		select {
		case <-ctx.Done():
			logger.Info("intake: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			process(ctx, ev.Name, pub, logger, seen)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("intake: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

func process(ctx context.Context, path string, pub Publisher, logger *slog.Logger, seen map[string]string) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".log", ".txt", ".out":
	default:
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("intake: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	sum := contentSum(data)
	if seen[path] == sum {
		logger.Debug("intake: unchanged, skipping", slog.String("path", path))
		return
	}

	var set marker.Set
	if ext == ".json" {
		set, err = parser.ParseSet(data)
		if err != nil {
			// Likely a partial write; the tool's final Write event retries.
			logger.Warn("intake: parse failed", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
	} else {
		set = parser.ParseText(data, setName(path))
	}

	if err := pub.Publish(ctx, set); err != nil {
		logger.Warn("intake: publish rejected",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	seen[path] = sum
	logger.Info("intake: published",
		slog.String("set", set.Name),
		slog.Int("markers", len(set.Markers)))
}

// setName derives a set name from a drop file: base name without extension.
func setName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func contentSum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
