package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/tableau/pkg/errors"
)

// Output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatDOT, FormatJSON}

// RenderJSON encodes m as indented JSON.
func RenderJSON(m *Model) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ParseJSON decodes a Model written by RenderJSON.
func ParseJSON(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}

// ValidateFormat returns an error unless format is one of [Formats].
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
}
