package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpH "github.com/tutorstack/content-backend/internal/http/handlers"
)

type RouterConfig struct {
	CurriculumHandler *httpH.CurriculumHandler
	TextHandler       *httpH.TextHandler

	AllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	r.GET("/healthcheck", httpH.HealthCheck)

	api := r.Group("/api")
	{
		if cfg.CurriculumHandler != nil {
			api.GET("/grades", cfg.CurriculumHandler.GetAvailableGrades)
			api.GET("/grades/:grade/structure", cfg.CurriculumHandler.GetGradeStructure)
			api.GET("/grades/:grade/terms/:term/subjects/:subject/concepts", cfg.CurriculumHandler.GetSubjectConcepts)
		}
		if cfg.TextHandler != nil {
			api.POST("/ingest", cfg.TextHandler.Ingest)
			api.POST("/search", cfg.TextHandler.Search)
		}
	}

	return r
}
