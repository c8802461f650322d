package watcher

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.klb.dev/clipfs/internal/clipdata"
)

const previewLen = 120

// LogSnapshot logs a snapshot at INFO (types, size, digest) and each entry
// at DEBUG: a text preview of up to 120 characters for text types, the byte
// size otherwise.
func LogSnapshot(logger *slog.Logger, event string, snap *clipdata.Snapshot) {
	logger.Info(event,
		"types", snap.Types(),
		"bytes", snap.Size(),
		"digest", short(snap.Digest()),
		"generation", snap.Generation(),
	)

	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, e := range snap.Entries() {
		if strings.HasPrefix(e.MIME, "text/") {
			logger.Debug("clipboard item", "mime", e.MIME, "preview", preview(e.Data))
		} else {
			logger.Debug("clipboard item", "mime", e.MIME, "size_bytes", len(e.Data))
		}
	}
}

// preview returns at most previewLen bytes of b, cut back to a rune boundary.
func preview(b []byte) string {
	if len(b) <= previewLen {
		return string(b)
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "…"
}
