package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeChunkExtractor replays scripted per-chunk results and records the
// grounding names it was handed.
type fakeChunkExtractor struct {
	mu        sync.Mutex
	concepts  map[string][]Concept
	exercises map[string][]Exercise
	grounding [][]string
}

func (f *fakeChunkExtractor) ExtractConcepts(_ context.Context, chunkPath, _ string) []Concept {
	// Stagger the first chunk so parallel extraction would reorder results
	// if the pipeline did not collect them by index.
	if strings.Contains(chunkPath, ".c0") {
		time.Sleep(30 * time.Millisecond)
	}
	return f.concepts[filepath.Base(chunkPath)]
}

func (f *fakeChunkExtractor) ExtractExercises(_ context.Context, chunkPath, _ string, conceptNames []string) []Exercise {
	f.mu.Lock()
	f.grounding = append(f.grounding, conceptNames)
	f.mu.Unlock()
	return f.exercises[filepath.Base(chunkPath)]
}

func fakeSplit(path string, _ int) ([]string, error) {
	return []string{path + ".c0", path + ".c1"}, nil
}

func newTestPipeline(store *memStore, extract extractor) *Pipeline {
	return &Pipeline{
		log:          testLogger(),
		store:        store,
		extract:      extract,
		contentRoot:  "content",
		chunksPerDoc: 2,
		parallelism:  2,
		split:        fakeSplit,
	}
}

func TestClassifyBooks(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"algebra.pdf":              "%PDF",
		"algebra_descriptor.json":  `{"book_type": "curriculum"}`,
		"workbook.pdf":             "%PDF",
		"workbook_descriptor.json": `{"book_type": "exercise"}`,
		"orphan.pdf":               "%PDF",
		"ghost_descriptor.json":    `{"book_type": "curriculum"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	curriculumPDFs, exercisePDFs, err := classifyBooks(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(curriculumPDFs) != 1 || filepath.Base(curriculumPDFs[0]) != "algebra.pdf" {
		t.Fatalf("curriculum bucket = %v, want algebra.pdf", curriculumPDFs)
	}
	if len(exercisePDFs) != 1 || filepath.Base(exercisePDFs[0]) != "workbook.pdf" {
		t.Fatalf("exercise bucket = %v, want workbook.pdf", exercisePDFs)
	}
}

func TestPipelineRunWritesUnifiedArtifact(t *testing.T) {
	store := newMemStore()
	store.objects["content/G7/Term1/Math/algebra.pdf"] = []byte("%PDF")
	store.objects["content/G7/Term1/Math/algebra_descriptor.json"] = []byte(`{"book_type": "curriculum"}`)
	store.objects["content/G7/Term1/Math/workbook.pdf"] = []byte("%PDF")
	store.objects["content/G7/Term1/Math/workbook_descriptor.json"] = []byte(`{"book_type": "exercise"}`)
	store.objects["content/G7/Term1/Math/notes.txt"] = []byte("ignored")

	extract := &fakeChunkExtractor{
		concepts: map[string][]Concept{
			"algebra.pdf.c0": {{Name: "Fractions", Description: "d1", SubConcepts: []SubConcept{{Name: "Adding", Description: "first"}}}},
			"algebra.pdf.c1": {{Name: "Fractions", Description: "d2", SubConcepts: []SubConcept{{Name: "Adding", Description: "second"}}}, {Name: "Decimals", Description: "x"}},
		},
		exercises: map[string][]Exercise{
			"workbook.pdf.c0": {{Question: "q1", Answer: "a1", ConceptName: "Fractions", SubConceptName: "Adding"}},
			"workbook.pdf.c1": {{Question: "q2", Answer: "a2", ConceptName: "Geometry"}},
		},
	}
	p := newTestPipeline(store, extract)

	if err := p.Run(context.Background(), "G7/Term1/Math"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, ok := store.objects["content/G7/Term1/Math/concepts/unified_curriculum.json"]
	if !ok {
		t.Fatalf("artifact not written; puts=%v", store.puts)
	}
	var artifact UnifiedCurriculum
	if err := json.Unmarshal(data, &artifact); err != nil {
		t.Fatalf("artifact not valid JSON: %v", err)
	}
	if len(artifact.Concepts) != 2 {
		t.Fatalf("got %d concepts, want 2: %+v", len(artifact.Concepts), artifact.Concepts)
	}

	fractions := artifact.Concepts[0]
	if fractions.Name != "Fractions" || fractions.Description != "d2" {
		t.Fatalf("later chunk must win the description: %+v", fractions)
	}
	if len(fractions.SubConcepts) != 1 || fractions.SubConcepts[0].Description != "first" {
		t.Fatalf("earlier chunk must win the sub-concept: %+v", fractions.SubConcepts)
	}
	if len(fractions.Exercises) != 1 || fractions.Exercises[0].Question != "q1" {
		t.Fatalf("exercise not linked: %+v", fractions.Exercises)
	}
	if len(fractions.SubConcepts[0].Exercises) != 1 {
		t.Fatalf("exercise not linked to sub-concept: %+v", fractions.SubConcepts[0])
	}
	if len(artifact.Concepts[1].Exercises) != 0 {
		t.Fatalf("unmatched exercise must be dropped, not reassigned: %+v", artifact.Concepts[1])
	}

	for _, names := range extract.grounding {
		if !reflect.DeepEqual(names, []string{"Fractions", "Decimals"}) {
			t.Fatalf("exercise extraction not grounded on unified names: %v", names)
		}
	}
}

type getFailStore struct {
	*memStore
}

func (f *getFailStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("transport closed")
}

func TestPipelineRunAbortsWithoutWritingOnDownloadFailure(t *testing.T) {
	inner := newMemStore()
	inner.objects["content/G7/Term1/Math/algebra.pdf"] = []byte("%PDF")
	store := &getFailStore{inner}

	p := &Pipeline{
		log:          testLogger(),
		store:        store,
		extract:      &fakeChunkExtractor{},
		contentRoot:  "content",
		chunksPerDoc: 2,
		parallelism:  2,
		split:        fakeSplit,
	}
	if err := p.Run(context.Background(), "G7/Term1/Math"); err == nil {
		t.Fatalf("expected run to fail when a source cannot be downloaded")
	}
	if len(inner.puts) != 0 {
		t.Fatalf("failed run must not write an artifact; puts=%v", inner.puts)
	}
}

func TestPipelineRunWithNoSourcesWritesEmptyArtifact(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(store, &fakeChunkExtractor{})

	if err := p.Run(context.Background(), "G7/Term1/Empty"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	data, ok := store.objects["content/G7/Term1/Empty/concepts/unified_curriculum.json"]
	if !ok {
		t.Fatalf("artifact not written")
	}
	var artifact UnifiedCurriculum
	if err := json.Unmarshal(data, &artifact); err != nil {
		t.Fatalf("artifact not valid JSON: %v", err)
	}
	if len(artifact.Concepts) != 0 {
		t.Fatalf("expected empty concept list, got %+v", artifact.Concepts)
	}
}
