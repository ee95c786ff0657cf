package graph

// Document is a PDF record held by the document store
type Document struct {
	PDFID      int64  `json:"pdf_id"`
	UserID     string `json:"user_id,omitempty"`
	Title      string `json:"title"`
	Summary    string `json:"summary,omitempty"`
	Filename   string `json:"filename,omitempty"`
	UploadDate string `json:"upload_date,omitempty"`
}

// Node converts the document into its graph vertex
func (d Document) Node() Node {
	return Node{
		ID:         DocumentNodeID(d.PDFID),
		Name:       d.Title,
		Type:       NodeTypeDocument,
		Color:      ColorFor(d.PDFID),
		Val:        DocumentNodeVal,
		Summary:    d.Summary,
		Filename:   d.Filename,
		UploadDate: d.UploadDate,
	}
}

// Assemble builds a snapshot from documents and, per document (same index),
// the documents related to it. Links are deduplicated and links pointing
// outside the document set are dropped; the number dropped is returned.
func Assemble(docs []Document, related [][]Document) (Snapshot, int) {
	nodes := make([]Node, 0, len(docs))
	links := make([]Link, 0)

	for i, doc := range docs {
		nodes = append(nodes, doc.Node())
		if i >= len(related) {
			continue
		}
		for _, rel := range related[i] {
			links = append(links, Link{
				Source: DocumentNodeID(doc.PDFID),
				Target: DocumentNodeID(rel.PDFID),
			})
		}
	}

	return Snapshot{Nodes: nodes, Links: DedupeLinks(links)}.PruneDangling()
}
