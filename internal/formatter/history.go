package formatter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/spotifycc/internal/models"
)

// History renders play history. Text and Markdown show relative times against now.
func History(format Format, entries []models.HistoryEntry, now time.Time) ([]byte, error) {
	switch format {
	case JSON:
		return toJSON(entries)
	case CSV:
		records := make([][]string, 0, len(entries))
		for _, e := range entries {
			records = append(records, []string{
				e.PlayedAt.UTC().Format(time.RFC3339),
				e.TrackTitle,
				e.TrackArtist,
				deref(e.TrackAlbum),
				deref(e.AudioURL),
			})
		}
		return writeCSV([]string{"Played At", "Title", "Artist", "Album", "Audio URL"}, records)
	}

	var buf bytes.Buffer
	if format == Markdown {
		buf.WriteString("# Recently played\n\n")
	}
	if len(entries) == 0 {
		buf.WriteString("Nothing played yet.\n")
		return buf.Bytes(), nil
	}

	for _, e := range entries {
		when := humanize.RelTime(e.PlayedAt, now, "ago", "from now")
		album := ""
		if e.TrackAlbum != nil && *e.TrackAlbum != "" {
			album = fmt.Sprintf(" (%s)", *e.TrackAlbum)
		}
		if format == Markdown {
			fmt.Fprintf(&buf, "- %s - %s%s, _%s_\n", e.TrackArtist, e.TrackTitle, album, when)
			continue
		}
		fmt.Fprintf(&buf, "%-16s %s - %s%s\n", when, e.TrackArtist, e.TrackTitle, album)
	}
	return buf.Bytes(), nil
}
