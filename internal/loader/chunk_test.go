package loader

import "testing"

func TestDocument_ChunkSplitsWithOverlap(t *testing.T) {
	doc := &Document{Pages: []Page{{PageNumber: 1, Text: "Sentence one is here. Sentence two is here. Sentence three is here."}}}

	chunks := doc.Chunk(30, 5)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has Index = %d", i, c.Index)
		}
		if c.Text == "" {
			t.Errorf("chunk %d has empty text", i)
		}
	}
}

func TestDocument_ChunkHandlesShortText(t *testing.T) {
	doc := &Document{Pages: []Page{{PageNumber: 1, Text: "short"}}}

	chunks := doc.Chunk(500, 50)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Text != "short" {
		t.Errorf("chunks[0].Text = %q", chunks[0].Text)
	}
}
