package app

import (
	"strings"
	"time"

	"github.com/tutorstack/content-backend/internal/platform/envutil"
	"github.com/tutorstack/content-backend/internal/platform/logger"
)

type Config struct {
	Addr         string
	AllowOrigins []string

	ContentRoot        string
	ChunksPerDocument  int
	ExtractParallelism int
	GenerationTimeout  time.Duration
	SingleFlight       bool
}

func LoadConfig(log *logger.Logger) Config {
	addr := envutil.GetEnv("LISTEN_ADDR", ":8080", log)
	origins := envutil.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)

	contentRoot := envutil.GetEnv("CONTENT_ROOT_PREFIX", "content", log)
	chunksPerDoc := envutil.GetEnvAsInt("CHUNKS_PER_DOCUMENT", 4, log)
	parallelism := envutil.GetEnvAsInt("EXTRACT_PARALLELISM", 4, log)
	generationTimeoutSec := envutil.GetEnvAsInt("GENERATION_TIMEOUT_SECONDS", 1800, log)
	singleFlight := envutil.GetEnvAsBool("CONCEPTS_SINGLE_FLIGHT", true, log)

	return Config{
		Addr:               addr,
		AllowOrigins:       strings.Split(origins, ","),
		ContentRoot:        contentRoot,
		ChunksPerDocument:  chunksPerDoc,
		ExtractParallelism: parallelism,
		GenerationTimeout:  time.Duration(generationTimeoutSec) * time.Second,
		SingleFlight:       singleFlight,
	}
}
