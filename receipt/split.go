package receipt

// SplitName splits a display name into printer lines of at most width
// symbols, keeping at most maxLines of them. Width has a floor of 30 and
// maxLines a floor of 1, matching the narrowest supported devices. The
// result is never empty; the last segment is what goes into the PLU name
// parameter, earlier segments are printed as plain text lines above it.
func SplitName(name string, width, maxLines int) []string {
	if width < minLineWidth {
		width = minLineWidth
	}
	if maxLines < 1 {
		maxLines = 1
	}
	if name == "" {
		return []string{""}
	}
	lines := splitWidth(name, width)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
