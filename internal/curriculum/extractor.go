package curriculum

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/tutorstack/content-backend/internal/platform/gemini"
	"github.com/tutorstack/content-backend/internal/platform/logger"
)

const conceptPrompt = `Based on the content of the provided curriculum PDF chunk, generate a JSON object that outlines the concepts and sub-concepts.
For each concept and sub-concept, provide a detailed description and at least one relevant example.
The JSON structure should be:
{
  "concepts": [
    {
      "name": "Concept Name",
      "description": "Detailed description of the concept.",
      "examples": ["Example 1", "Example 2"],
      "sub_concepts": [
        {
          "name": "Sub-concept Name",
          "description": "Detailed description of the sub-concept.",
          "examples": ["Example 1", "Example 2"]
        }
      ]
    }
  ]
}`

const exercisePromptFormat = `Based on the unified concepts provided and the content of the uploaded exercise book PDF chunk, identify exercises and link each to the most relevant concept and sub-concept.
Return a JSON object with an "exercises" list.
JSON Structure: { "exercises": [ { "question": "...", "answer": "...", "concept_name": "...", "sub_concept_name": "..." } ] }
Unified Concepts: %s`

// chunkExtractor sends one document chunk plus a prompt to the generative
// model and parses the JSON reply. Every failure mode is swallowed: one bad
// chunk never aborts a pipeline run.
type chunkExtractor struct {
	log   *logger.Logger
	model gemini.Client
}

func newChunkExtractor(log *logger.Logger, model gemini.Client) *chunkExtractor {
	return &chunkExtractor{
		log:   log.With("service", "ChunkExtractor"),
		model: model,
	}
}

// ExtractConcepts returns the concepts found in one curriculum chunk, or an
// empty list on any failure.
func (e *chunkExtractor) ExtractConcepts(ctx context.Context, chunkPath, sourceName string) []Concept {
	raw, ok := e.generate(ctx, chunkPath, sourceName, conceptPrompt)
	if !ok {
		return nil
	}
	var payload struct {
		Concepts []Concept `json:"concepts"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		e.log.Warn("Discarding unparsable concept response", "source", sourceName, "error", err)
		return nil
	}
	return payload.Concepts
}

// ExtractExercises returns the exercises found in one exercise-book chunk,
// grounded on the already-unified concept names, or an empty list on any
// failure.
func (e *chunkExtractor) ExtractExercises(ctx context.Context, chunkPath, sourceName string, conceptNames []string) []Exercise {
	namesJSON, err := json.Marshal(conceptNames)
	if err != nil {
		e.log.Warn("Failed to encode concept names", "source", sourceName, "error", err)
		return nil
	}
	raw, ok := e.generate(ctx, chunkPath, sourceName, fmt.Sprintf(exercisePromptFormat, namesJSON))
	if !ok {
		return nil
	}
	var payload struct {
		Exercises []Exercise `json:"exercises"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		e.log.Warn("Discarding unparsable exercise response", "source", sourceName, "error", err)
		return nil
	}
	return payload.Exercises
}

// generate uploads the chunk, runs the prompt against it, and strips any
// markdown fences from the reply. The uploaded handle is released on every
// exit path. The bool result is false when the chunk should be skipped.
func (e *chunkExtractor) generate(ctx context.Context, chunkPath, sourceName, prompt string) (string, bool) {
	f, err := os.Open(chunkPath)
	if err != nil {
		e.log.Warn("Failed to open chunk", "source", sourceName, "path", chunkPath, "error", err)
		return "", false
	}
	defer f.Close()

	displayName := fmt.Sprintf("chunk_%s_%s", uuid.NewString(), sourceName)
	file, err := e.model.UploadFile(ctx, displayName, "application/pdf", f)
	if err != nil {
		e.log.Warn("Failed to upload chunk", "source", sourceName, "error", err)
		return "", false
	}
	// Release the remote handle even when the surrounding context has already
	// been canceled.
	defer func() {
		deleteCtx := context.WithoutCancel(ctx)
		if err := e.model.DeleteFile(deleteCtx, file.Name); err != nil {
			e.log.Warn("Failed to delete uploaded chunk", "file", file.Name, "error", err)
		}
	}()

	text, err := e.model.GenerateContent(ctx, prompt, file)
	if err != nil {
		e.log.Warn("Model call failed for chunk", "source", sourceName, "error", err)
		return "", false
	}
	return stripCodeFences(text), true
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
