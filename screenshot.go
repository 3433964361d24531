package willowfx

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Snapshot queues a labeled PNG of the scene frame. It is captured from the
// scene pipeline at the end of the current Draw and written to
// Config.SnapshotDir with a timestamped filename.
func (b *Bridge) Snapshot(label string) {
	b.snapshotQueue = append(b.snapshotQueue, label)
}

// flushSnapshots writes every queued snapshot. Called at the end of Draw.
func (b *Bridge) flushSnapshots() {
	if len(b.snapshotQueue) == 0 {
		return
	}
	defer func() { b.snapshotQueue = b.snapshotQueue[:0] }()

	b.sceneMu.AsyncLock()
	img := b.scene.Snapshot()
	b.sceneMu.AsyncUnlock()
	if img == nil {
		b.log.Warning().Int("labels", len(b.snapshotQueue)).Log("snapshot skipped: no frame")
		return
	}

	paths, err := writeSnapshots(b.cfg.SnapshotDir, time.Now(), b.snapshotQueue, img)
	for _, p := range paths {
		b.log.Info().Str("path", p).Log("snapshot written")
	}
	if err != nil {
		b.log.Err().Err(err).Log("snapshot failed")
	}
}

// writeSnapshots writes img once per label and returns the written paths.
func writeSnapshots(dir string, now time.Time, labels []string, img *image.NRGBA) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}
	stamp := now.Format("20060102_150405")
	paths := make([]string, 0, len(labels))
	for _, label := range labels {
		path := filepath.Join(dir, stamp+"_"+sanitizeLabel(label)+".png")
		if err := writePNG(path, img); err != nil {
			return paths, fmt.Errorf("snapshot: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
