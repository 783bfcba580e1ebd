package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutorstack/content-backend/internal/platform/apperr"
	"github.com/tutorstack/content-backend/internal/platform/gcs"
	"github.com/tutorstack/content-backend/internal/platform/logger"
)

const (
	placeholderName        = "Generating Concepts"
	placeholderDescription = "The curriculum for this subject is being generated. Please check back in a few minutes."
)

// Runner starts one generation run for a subject path.
type Runner interface {
	Run(ctx context.Context, subjectPath string) error
}

// ServiceConfig carries the cache policy knobs.
type ServiceConfig struct {
	// ContentRoot is the top-level key prefix, normally "content".
	ContentRoot string
	// GenerationTimeout bounds one background pipeline run.
	GenerationTimeout time.Duration
	// SingleFlight joins concurrent misses for the same subject into one
	// generation run. Disabling it restores the legacy behavior where every
	// miss spawns its own run.
	SingleFlight bool
}

// Service is the read-through curriculum cache. Reads never block on
// generation: a miss returns a placeholder and fills in the background.
type Service struct {
	log      *logger.Logger
	store    gcs.ObjectStore
	pipeline Runner
	cfg      ServiceConfig

	mu       sync.Mutex
	inflight map[string]uuid.UUID
}

func NewService(log *logger.Logger, store gcs.ObjectStore, pipeline Runner, cfg ServiceConfig) *Service {
	if cfg.ContentRoot == "" {
		cfg.ContentRoot = "content"
	}
	cfg.ContentRoot = strings.Trim(cfg.ContentRoot, "/")
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Minute
	}
	return &Service{
		log:      log.With("service", "CurriculumService"),
		store:    store,
		pipeline: pipeline,
		cfg:      cfg,
		inflight: map[string]uuid.UUID{},
	}
}

// GetSubjectConcepts returns the concept list for a subject. A missing
// artifact triggers background generation and yields a placeholder concept;
// a corrupt artifact yields a descriptive error concept. Neither is an error
// to the caller.
func (s *Service) GetSubjectConcepts(ctx context.Context, grade, term, subject string) ([]Concept, error) {
	key := fmt.Sprintf("%s/%s/%s/%s/concepts/%s", s.cfg.ContentRoot, grade, term, subject, artifactName)
	log := s.log.With("key", key)

	data, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		log.Info("Concept artifact not found, starting generation in background")
		s.dispatchGeneration(fmt.Sprintf("%s/%s/%s", grade, term, subject))
		return []Concept{{Name: placeholderName, Description: placeholderDescription}}, nil
	default:
		return nil, fmt.Errorf("failed to access curriculum file %q: %w: %w", key, err, apperr.ErrUnexpectedIO)
	}

	var artifact UnifiedCurriculum
	if err := json.Unmarshal(data, &artifact); err != nil {
		log.Warn("Concept artifact is corrupted", "error", err)
		return []Concept{{
			Name:        "Error",
			Description: fmt.Sprintf("The curriculum file is corrupted: %v", err),
		}}, nil
	}
	return artifact.Concepts, nil
}

// GetAvailableGrades lists the top-level grade directories. Only prefixes
// whose last segment carries a grade code (G, P, or KG) are returned.
func (s *Service) GetAvailableGrades(ctx context.Context) ([]string, error) {
	entries, err := s.store.List(ctx, s.cfg.ContentRoot+"/", "/")
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	grades := []string{}
	for _, entry := range entries {
		if !entry.IsPrefix() {
			continue
		}
		grade := lastSegment(entry.Prefix)
		if strings.HasPrefix(grade, "G") || strings.HasPrefix(grade, "P") || strings.HasPrefix(grade, "KG") {
			grades = append(grades, grade)
		}
	}
	sort.Strings(grades)
	return grades, nil
}

// GetGradeStructure walks one grade's term and subject directories. The
// reserved "concepts" pseudo-subject (the artifact directory) is excluded.
func (s *Service) GetGradeStructure(ctx context.Context, grade string) (GradeStructure, error) {
	structure := GradeStructure{Grade: grade, Terms: map[string][]string{}}

	gradePrefix := fmt.Sprintf("%s/%s/", s.cfg.ContentRoot, grade)
	termEntries, err := s.store.List(ctx, gradePrefix, "/")
	if err != nil {
		return GradeStructure{}, fmt.Errorf("failed to list terms for grade %q: %w", grade, err)
	}
	for _, termEntry := range termEntries {
		if !termEntry.IsPrefix() {
			continue
		}
		term := lastSegment(termEntry.Prefix)
		if !strings.HasPrefix(term, "Term") {
			continue
		}
		structure.Terms[term] = []string{}

		subjectEntries, err := s.store.List(ctx, termEntry.Prefix, "/")
		if err != nil {
			return GradeStructure{}, fmt.Errorf("failed to list subjects under %q: %w", termEntry.Prefix, err)
		}
		for _, subjectEntry := range subjectEntries {
			if !subjectEntry.IsPrefix() {
				continue
			}
			subject := lastSegment(subjectEntry.Prefix)
			if subject != "concepts" {
				structure.Terms[term] = append(structure.Terms[term], subject)
			}
		}
	}
	return structure, nil
}

// dispatchGeneration hands one pipeline run to a background goroutine and
// returns immediately. With single-flight enabled, a subject already being
// generated is not started again; the new miss joins the running job.
func (s *Service) dispatchGeneration(subjectPath string) {
	job := GenerationJob{ID: uuid.New(), SubjectPath: subjectPath, StartedAt: time.Now()}

	if s.cfg.SingleFlight {
		s.mu.Lock()
		if runningID, running := s.inflight[subjectPath]; running {
			s.mu.Unlock()
			s.log.Info("Generation already in flight, joining", "subject_path", subjectPath, "job_id", runningID)
			return
		}
		s.inflight[subjectPath] = job.ID
		s.mu.Unlock()
	}

	go func() {
		defer func() {
			if s.cfg.SingleFlight {
				s.mu.Lock()
				delete(s.inflight, subjectPath)
				s.mu.Unlock()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GenerationTimeout)
		defer cancel()

		log := s.log.With("job_id", job.ID, "subject_path", job.SubjectPath)
		log.Info("Starting concept generation")
		if err := s.pipeline.Run(ctx, job.SubjectPath); err != nil {
			log.Error("Concept generation failed", "error", err, "elapsed", time.Since(job.StartedAt).String())
			return
		}
		log.Info("Concept generation finished", "elapsed", time.Since(job.StartedAt).String())
	}()
}

func lastSegment(prefix string) string {
	parts := strings.Split(strings.TrimSuffix(prefix, "/"), "/")
	return parts[len(parts)-1]
}
