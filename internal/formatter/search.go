package formatter

import (
	"bytes"
	"fmt"

	"github.com/desertthunder/spotifycc/internal/resolver"
)

// Search renders a search result. CSV carries the tracks only.
func Search(format Format, query string, result *resolver.Result) ([]byte, error) {
	switch format {
	case JSON:
		return toJSON(result)
	case CSV:
		return TracksToCSV(result.Tracks)
	}

	var buf bytes.Buffer
	if format == Markdown {
		buf.Write(TracksToMarkdown(fmt.Sprintf("Results for '%s'", query), result.Tracks))
		buf.WriteString("\n## Artists\n\n")
	} else {
		fmt.Fprintf(&buf, "Tracks (%d)\n", len(result.Tracks))
		buf.Write(TracksToText(result.Tracks))
		fmt.Fprintf(&buf, "\nArtists (%d)\n", len(result.Artists))
	}
	for _, a := range result.Artists {
		fmt.Fprintf(&buf, "- %s\n", a.Name)
	}

	if format == Markdown {
		buf.WriteString("\n## Albums\n\n")
	} else {
		fmt.Fprintf(&buf, "\nAlbums (%d)\n", len(result.Albums))
	}
	for _, a := range result.Albums {
		year := ""
		if a.Year != nil {
			year = fmt.Sprintf(" (%d)", *a.Year)
		}
		fmt.Fprintf(&buf, "- %s by %s%s\n", a.Title, a.Artist.Name, year)
	}
	return buf.Bytes(), nil
}
