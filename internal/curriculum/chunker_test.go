package curriculum

import "testing"

func TestPageRangesCoverAndOrder(t *testing.T) {
	cases := []struct {
		pages, chunks int
	}{
		{100, 4},
		{10, 4},
		{3, 4},
		{1, 4},
		{7, 3},
		{8, 3},
		{9, 3},
		{1, 1},
		{5, 1},
	}
	for _, tc := range cases {
		ranges := pageRanges(tc.pages, tc.chunks)

		perChunk := (tc.pages + tc.chunks - 1) / tc.chunks
		wantCount := (tc.pages + perChunk - 1) / perChunk
		if wantCount > tc.chunks {
			wantCount = tc.chunks
		}
		if len(ranges) != wantCount {
			t.Fatalf("pages=%d chunks=%d: got %d ranges, want %d", tc.pages, tc.chunks, len(ranges), wantCount)
		}

		next := 0
		for i, r := range ranges {
			if r.Start != next {
				t.Fatalf("pages=%d chunks=%d range %d: starts at %d, want %d", tc.pages, tc.chunks, i, r.Start, next)
			}
			if r.End <= r.Start {
				t.Fatalf("pages=%d chunks=%d range %d: empty range %+v", tc.pages, tc.chunks, i, r)
			}
			next = r.End
		}
		if next != tc.pages {
			t.Fatalf("pages=%d chunks=%d: ranges end at %d, want %d", tc.pages, tc.chunks, next, tc.pages)
		}
	}
}

func TestPageRangesShortDocumentYieldsFewerChunks(t *testing.T) {
	ranges := pageRanges(3, 4)
	if len(ranges) != 3 {
		t.Fatalf("got %d chunks, want 3", len(ranges))
	}
	for i, r := range ranges {
		if r.End-r.Start != 1 {
			t.Fatalf("range %d: got %+v, want single page", i, r)
		}
	}
}

func TestPageRangesDegenerate(t *testing.T) {
	if got := pageRanges(0, 4); got != nil {
		t.Fatalf("expected nil for empty document, got %v", got)
	}
	if got := pageRanges(10, 0); got != nil {
		t.Fatalf("expected nil for zero chunks, got %v", got)
	}
}
