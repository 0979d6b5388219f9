package crawler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tnpds-watch/shopcrawl/session"
)

// ArtifactStore writes debug artifacts for failed shops: a screenshot and
// an HTML snapshot per final failed attempt, named so a human can correlate
// them with the report. The pipeline never reads them back.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates the artifacts directory on first use.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Capture saves the current page's screenshot and markup. Best effort:
// artifact failures are logged, never propagated, because they must not
// affect the batch.
func (a *ArtifactStore) Capture(s session.Session, shopID string, attempt int) {
	if a == nil || a.dir == "" || s == nil || !s.Alive() {
		return
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		slog.Warn("create artifacts dir", slog.String("dir", a.dir), slog.Any("error", err))
		return
	}

	base := fmt.Sprintf("%s_attempt%d", sanitizeID(shopID), attempt)

	if data, err := s.Screenshot(); err != nil {
		slog.Warn("capture screenshot", slog.String("shop", shopID), slog.Any("error", err))
	} else if err := os.WriteFile(filepath.Join(a.dir, base+".png"), data, 0o644); err != nil {
		slog.Warn("write screenshot", slog.String("shop", shopID), slog.Any("error", err))
	}

	if html, err := s.PageSource(); err != nil {
		slog.Warn("capture page source", slog.String("shop", shopID), slog.Any("error", err))
	} else if err := os.WriteFile(filepath.Join(a.dir, base+".html"), []byte(html), 0o644); err != nil {
		slog.Warn("write page source", slog.String("shop", shopID), slog.Any("error", err))
	}
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
