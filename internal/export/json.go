package export

import (
	"encoding/json"
	"fmt"
	"io"

	"sketchsynth/internal/state"
)

// WriteJSON encodes d in the dataset layout, one stroke per [xs, ys, ts].
func WriteJSON(w io.Writer, d state.Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}

// ReadJSON decodes a sketch written by WriteJSON.
func ReadJSON(r io.Reader) (state.Data, error) {
	var d state.Data
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return state.Data{}, fmt.Errorf("export: json: %w", err)
	}
	return d, nil
}

// SaveJSON writes d as a JSON file at path.
func SaveJSON(path string, d state.Data) error {
	return save(path, func(w io.Writer) error { return WriteJSON(w, d) })
}
