package curriculum

import (
	"fmt"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// pageRange is a contiguous half-open run of zero-based pages [Start, End).
type pageRange struct {
	Start int
	End   int
}

// pageRanges splits totalPages into at most numChunks contiguous ranges of
// ceil(totalPages/numChunks) pages each. Short documents yield fewer chunks
// than requested; ranges are disjoint, ordered, and cover every page once.
func pageRanges(totalPages, numChunks int) []pageRange {
	if totalPages <= 0 || numChunks <= 0 {
		return nil
	}
	perChunk := (totalPages + numChunks - 1) / numChunks
	var ranges []pageRange
	for i := 0; i < numChunks; i++ {
		start := i * perChunk
		if start >= totalPages {
			break
		}
		end := (i + 1) * perChunk
		if end > totalPages {
			end = totalPages
		}
		ranges = append(ranges, pageRange{Start: start, End: end})
	}
	return ranges
}

// splitPDF writes each page range of the source document to its own PDF next
// to the source and returns the chunk paths in page order.
func splitPDF(path string, numChunks int) ([]string, error) {
	totalPages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("page count for %q: %w", path, err)
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	var chunkPaths []string
	for i, r := range pageRanges(totalPages, numChunks) {
		chunkPath := filepath.Join(dir, fmt.Sprintf("chunk_%d_%s", i, base))
		// pdfcpu page selection is 1-based and inclusive.
		selected := []string{fmt.Sprintf("%d-%d", r.Start+1, r.End)}
		if err := api.TrimFile(path, chunkPath, selected, nil); err != nil {
			return nil, fmt.Errorf("extract pages %d-%d of %q: %w", r.Start, r.End-1, path, err)
		}
		chunkPaths = append(chunkPaths, chunkPath)
	}
	return chunkPaths, nil
}
