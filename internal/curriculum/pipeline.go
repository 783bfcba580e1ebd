package curriculum

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tutorstack/content-backend/internal/platform/gcs"
	"github.com/tutorstack/content-backend/internal/platform/gemini"
	"github.com/tutorstack/content-backend/internal/platform/logger"
)

const (
	descriptorSuffix = "_descriptor.json"
	artifactName     = "unified_curriculum.json"
)

type extractor interface {
	ExtractConcepts(ctx context.Context, chunkPath, sourceName string) []Concept
	ExtractExercises(ctx context.Context, chunkPath, sourceName string, conceptNames []string) []Exercise
}

// Pipeline derives the unified curriculum artifact for one subject from its
// source books and writes it back to the object store. A failed run writes
// nothing; the next cache miss triggers a fresh run.
type Pipeline struct {
	log          *logger.Logger
	store        gcs.ObjectStore
	extract      extractor
	contentRoot  string
	chunksPerDoc int
	parallelism  int

	split func(path string, numChunks int) ([]string, error)
}

func NewPipeline(log *logger.Logger, store gcs.ObjectStore, model gemini.Client, contentRoot string, chunksPerDoc, parallelism int) *Pipeline {
	if chunksPerDoc <= 0 {
		chunksPerDoc = 4
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Pipeline{
		log:          log.With("service", "GenerationPipeline"),
		store:        store,
		extract:      newChunkExtractor(log, model),
		contentRoot:  strings.Trim(contentRoot, "/"),
		chunksPerDoc: chunksPerDoc,
		parallelism:  parallelism,
		split:        splitPDF,
	}
}

// Run executes one generation for subjectPath ("{grade}/{term}/{subject}").
func (p *Pipeline) Run(ctx context.Context, subjectPath string) error {
	log := p.log.With("subject_path", subjectPath)

	workDir, err := os.MkdirTemp("", "curriculum-gen-*")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workDir)
	log.Info("Using temporary workspace", "dir", workDir)

	prefix := fmt.Sprintf("%s/%s/", p.contentRoot, subjectPath)
	if err := p.downloadSources(ctx, prefix, workDir, log); err != nil {
		return err
	}

	curriculumPDFs, exercisePDFs, err := classifyBooks(workDir)
	if err != nil {
		return err
	}
	log.Info("Classified source books",
		"curriculum_books", len(curriculumPDFs),
		"exercise_books", len(exercisePDFs),
	)

	var allConcepts []Concept
	for _, pdf := range curriculumPDFs {
		concepts, err := p.extractConceptsFromBook(ctx, pdf)
		if err != nil {
			return err
		}
		allConcepts = append(allConcepts, concepts...)
	}

	unified := unifyConcepts(allConcepts)
	log.Info("Unified concepts", "count", len(unified.Concepts))

	names := conceptNames(unified)
	var allExercises []Exercise
	for _, pdf := range exercisePDFs {
		exercises, err := p.extractExercisesFromBook(ctx, pdf, names)
		if err != nil {
			return err
		}
		allExercises = append(allExercises, exercises...)
	}

	linkExercises(&unified, allExercises)

	data, err := json.MarshalIndent(unified, "", "    ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	artifactKey := prefix + "concepts/" + artifactName
	if err := p.store.Put(ctx, artifactKey, data); err != nil {
		return fmt.Errorf("upload artifact %q: %w", artifactKey, err)
	}
	log.Info("Uploaded unified curriculum", "key", artifactKey, "concepts", len(unified.Concepts), "exercises", len(allExercises))
	return nil
}

// downloadSources copies every source PDF and descriptor under prefix into
// the workspace.
func (p *Pipeline) downloadSources(ctx context.Context, prefix, workDir string, log *logger.Logger) error {
	entries, err := p.store.List(ctx, prefix, "")
	if err != nil {
		return fmt.Errorf("list sources under %q: %w", prefix, err)
	}
	for _, entry := range entries {
		if entry.IsPrefix() {
			continue
		}
		key := entry.Key
		if !strings.HasSuffix(key, ".pdf") && !strings.HasSuffix(key, descriptorSuffix) {
			continue
		}
		data, err := p.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("download %q: %w", key, err)
		}
		dest := filepath.Join(workDir, filepath.Base(key))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("write %q: %w", dest, err)
		}
		log.Debug("Downloaded source", "key", key, "dest", dest)
	}
	return nil
}

// classifyBooks pairs each descriptor with its PDF and buckets the PDF by
// book_type. PDFs without a descriptor are ignored.
func classifyBooks(dir string) (curriculumPDFs, exercisePDFs []string, err error) {
	descriptors, err := filepath.Glob(filepath.Join(dir, "*"+descriptorSuffix))
	if err != nil {
		return nil, nil, fmt.Errorf("scan descriptors: %w", err)
	}
	sort.Strings(descriptors)

	for _, descPath := range descriptors {
		data, err := os.ReadFile(descPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read descriptor %q: %w", descPath, err)
		}
		var desc Descriptor
		if err := json.Unmarshal(data, &desc); err != nil {
			return nil, nil, fmt.Errorf("decode descriptor %q: %w", descPath, err)
		}

		pdfPath := strings.TrimSuffix(descPath, descriptorSuffix) + ".pdf"
		if _, err := os.Stat(pdfPath); err != nil {
			continue
		}
		switch desc.BookType {
		case BookTypeCurriculum:
			curriculumPDFs = append(curriculumPDFs, pdfPath)
		case BookTypeExercise:
			exercisePDFs = append(exercisePDFs, pdfPath)
		}
	}
	return curriculumPDFs, exercisePDFs, nil
}

// extractConceptsFromBook splits one curriculum book and extracts each chunk.
// Chunk calls run in parallel; results are accumulated in chunk order so the
// unifier sees a deterministic sequence.
func (p *Pipeline) extractConceptsFromBook(ctx context.Context, pdfPath string) ([]Concept, error) {
	chunkPaths, err := p.split(pdfPath, p.chunksPerDoc)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", pdfPath, err)
	}
	sourceName := filepath.Base(pdfPath)
	p.log.Info("Processing curriculum book", "source", sourceName, "chunks", len(chunkPaths))

	results := make([][]Concept, len(chunkPaths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i, chunkPath := range chunkPaths {
		g.Go(func() error {
			results[i] = p.extract.ExtractConcepts(gctx, chunkPath, sourceName)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var concepts []Concept
	for _, r := range results {
		concepts = append(concepts, r...)
	}
	return concepts, nil
}

func (p *Pipeline) extractExercisesFromBook(ctx context.Context, pdfPath string, names []string) ([]Exercise, error) {
	chunkPaths, err := p.split(pdfPath, p.chunksPerDoc)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", pdfPath, err)
	}
	sourceName := filepath.Base(pdfPath)
	p.log.Info("Processing exercise book", "source", sourceName, "chunks", len(chunkPaths))

	results := make([][]Exercise, len(chunkPaths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i, chunkPath := range chunkPaths {
		g.Go(func() error {
			results[i] = p.extract.ExtractExercises(gctx, chunkPath, sourceName, names)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var exercises []Exercise
	for _, r := range results {
		exercises = append(exercises, r...)
	}
	return exercises, nil
}
