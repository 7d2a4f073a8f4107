package render

import "context"

// Render produces m in the given format.
func Render(ctx context.Context, m *Model, format string, opts Options) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return RenderJSON(m)
	case FormatDOT:
		return []byte(ToDOT(m, opts)), nil
	default:
		return RenderSVG(ctx, ToDOT(m, opts))
	}
}
