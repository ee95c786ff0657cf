package graph

// Palette is the ordered set of document colours
var Palette = []string{"#ef4444", "#3b82f6", "#10b981", "#f59e0b", "#8b5cf6", "#ec4899", "#14b8a6"}

// ColorFor picks a stable colour for a document id
func ColorFor(pdfID int64) string {
	n := int64(len(Palette))
	return Palette[((pdfID%n)+n)%n]
}
