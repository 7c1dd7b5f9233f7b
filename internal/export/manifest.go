package export

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one frame in the output manifest.
type ManifestEntry struct {
	Frame    int     `json:"frame"`
	Image    string  `json:"image"`
	Index    int     `json:"scene_index"`
	Next     int     `json:"scene_next"`
	Blend    float64 `json:"blend"`
	CursorX  float64 `json:"cursor_x"`
	CursorY  float64 `json:"cursor_y"`
	Velocity float64 `json:"velocity"`
	Error    string  `json:"error,omitempty"`
}

// WriteManifest writes manifest.json to the output directory.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Frame:    r.Frame,
			Image:    r.File,
			Index:    r.Pair.Index,
			Next:     r.Pair.Next,
			Blend:    r.Pair.Blend,
			CursorX:  r.Cursor.Position[0],
			CursorY:  r.Cursor.Position[1],
			Velocity: r.Cursor.Velocity,
			Error:    r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
