package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorstack/content-backend/internal/curriculum"
	"github.com/tutorstack/content-backend/internal/http/response"
	"github.com/tutorstack/content-backend/internal/platform/logger"
)

type CurriculumHandler struct {
	log     *logger.Logger
	service *curriculum.Service
}

func NewCurriculumHandler(log *logger.Logger, service *curriculum.Service) *CurriculumHandler {
	return &CurriculumHandler{
		log:     log.With("handler", "CurriculumHandler"),
		service: service,
	}
}

// GET /api/grades
func (h *CurriculumHandler) GetAvailableGrades(c *gin.Context) {
	grades, err := h.service.GetAvailableGrades(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get available grades", "error", err)
		response.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grades": grades})
}

// GET /api/grades/:grade/structure
func (h *CurriculumHandler) GetGradeStructure(c *gin.Context) {
	grade := c.Param("grade")
	structure, err := h.service.GetGradeStructure(c.Request.Context(), grade)
	if err != nil {
		h.log.Error("Failed to get grade structure", "grade", grade, "error", err)
		response.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, structure)
}

// GET /api/grades/:grade/terms/:term/subjects/:subject/concepts
//
// Reads degrade rather than fail: a missing artifact yields the generation
// placeholder, a corrupt one yields an error concept. Only unexpected
// storage failures surface as 500s.
func (h *CurriculumHandler) GetSubjectConcepts(c *gin.Context) {
	grade := c.Param("grade")
	term := c.Param("term")
	subject := c.Param("subject")

	concepts, err := h.service.GetSubjectConcepts(c.Request.Context(), grade, term, subject)
	if err != nil {
		h.log.Error("Failed to get subject concepts", "grade", grade, "term", term, "subject", subject, "error", err)
		response.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"concepts": concepts})
}
