package render

type colorPair struct {
	start string
	end   string
}

var palette = [6]colorPair{
	{start: "#10b981", end: "#059669"}, // emerald
	{start: "#3b82f6", end: "#2563eb"}, // blue
	{start: "#8b5cf6", end: "#7c3aed"}, // violet
	{start: "#ec4899", end: "#db2777"}, // pink
	{start: "#f59e0b", end: "#d97706"}, // amber
	{start: "#06b6d4", end: "#0891b2"}, // cyan
}

// paletteIndex is independent of layout.
func paletteIndex(i int) int {
	return i % len(palette)
}
