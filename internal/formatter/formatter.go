// package formatter renders tracks, playlists and listening history as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// Format selects an output encoding.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// ParseFormat validates a --format flag value. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt", "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, text)", shared.ErrInvalidFlag, s)
	}
}

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// TotalDuration renders the summed length of tracks in words, e.g. "12 minutes".
func TotalDuration(tracks []models.Track) string {
	total := 0
	for _, t := range tracks {
		total += t.DurationSeconds
	}
	if total < 60 {
		return humanize.Comma(int64(total)) + " seconds"
	}
	if total < 3600 {
		return humanize.Comma(int64(total/60)) + " minutes"
	}
	return fmt.Sprintf("%s h %d min", humanize.Comma(int64(total/3600)), total/60%60)
}

func toJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TracksToCSV converts tracks to CSV with columns: Key, Title, Artist, Album, Duration, Audio URL
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	records := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		records = append(records, []string{
			t.Key(),
			t.Title,
			t.Artist.Name,
			t.Album.Title,
			strconv.Itoa(t.DurationSeconds),
			deref(t.AudioURL),
		})
	}
	return writeCSV([]string{"Key", "Title", "Artist", "Album", "Duration", "Audio URL"}, records)
}

// TracksToMarkdown converts tracks to a numbered Markdown list under heading.
func TracksToMarkdown(heading string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", heading)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n\n", TotalDuration(tracks))

	for i, t := range tracks {
		albumPart := ""
		if t.Album.Title != "" {
			albumPart = fmt.Sprintf(" (%s)", t.Album.Title)
		}
		unplayable := ""
		if !t.Playable() {
			unplayable = " _unavailable_"
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]%s\n", i+1, t.Artist.Name, t.Title, albumPart, FormatDuration(t.DurationSeconds), unplayable)
	}
	return buf.Bytes()
}

// TracksToText converts tracks to a numbered plain text list.
func TracksToText(tracks []models.Track) []byte {
	var buf bytes.Buffer
	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, t.Artist.Name, t.Title, FormatDuration(t.DurationSeconds))
	}
	return buf.Bytes()
}

// Tracks renders tracks in format. heading titles the Markdown output.
func Tracks(format Format, heading string, tracks []models.Track) ([]byte, error) {
	switch format {
	case JSON:
		return toJSON(tracks)
	case CSV:
		return TracksToCSV(tracks)
	case Markdown:
		return TracksToMarkdown(heading, tracks), nil
	default:
		return TracksToText(tracks), nil
	}
}

// Memberships renders a playlist's members in order, numbered by their playlist position.
func Memberships(format Format, playlistName string, members []models.Membership) ([]byte, error) {
	switch format {
	case JSON:
		return toJSON(members)
	case CSV:
		records := make([][]string, 0, len(members))
		for _, m := range members {
			records = append(records, []string{
				strconv.Itoa(m.Order),
				strconv.FormatInt(m.TrackID, 10),
				m.Track.Title,
				m.Track.Artist.Name,
				m.Track.Album.Title,
				strconv.Itoa(m.Track.DurationSeconds),
				m.AddedAt.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
		return writeCSV([]string{"Order", "Track ID", "Title", "Artist", "Album", "Duration", "Added At"}, records)
	}

	var buf bytes.Buffer
	if format == Markdown {
		fmt.Fprintf(&buf, "# %s\n\n**Tracks**: %d\n\n", playlistName, len(members))
	} else {
		fmt.Fprintf(&buf, "Playlist: %s\nTracks: %d\n\n", playlistName, len(members))
	}
	for _, m := range members {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", m.Order, m.Track.Artist.Name, m.Track.Title, FormatDuration(m.Track.DurationSeconds))
	}
	return buf.Bytes(), nil
}

// Playlists renders playlist summaries with their owners.
func Playlists(format Format, summaries []models.PlaylistSummary) ([]byte, error) {
	switch format {
	case JSON:
		return toJSON(summaries)
	case CSV:
		records := make([][]string, 0, len(summaries))
		for _, p := range summaries {
			records = append(records, []string{
				strconv.FormatInt(p.ID, 10),
				p.Name,
				deref(p.Description),
				p.Owner.Name,
				strconv.Itoa(len(p.Tracks)),
			})
		}
		return writeCSV([]string{"ID", "Name", "Description", "Owner", "Tracks"}, records)
	}

	var buf bytes.Buffer
	if format == Markdown {
		buf.WriteString("# Playlists\n\n")
	}
	for _, p := range summaries {
		if format == Markdown {
			fmt.Fprintf(&buf, "- **%s** by %s (%s)\n", p.Name, p.Owner.Name, humanize.Plural(len(p.Tracks), "track", "tracks"))
			continue
		}
		fmt.Fprintf(&buf, "[%d] %s by %s, %s\n", p.ID, p.Name, p.Owner.Name, humanize.Plural(len(p.Tracks), "track", "tracks"))
		if desc := deref(p.Description); desc != "" {
			fmt.Fprintf(&buf, "    %s\n", desc)
		}
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to path, or to stdout when path is empty or "-".
func WriteFile(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
