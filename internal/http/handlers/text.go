package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorstack/content-backend/internal/http/response"
	"github.com/tutorstack/content-backend/internal/platform/logger"
	"github.com/tutorstack/content-backend/internal/textstore"
)

type TextHandler struct {
	log   *logger.Logger
	store *textstore.Store
}

func NewTextHandler(log *logger.Logger, store *textstore.Store) *TextHandler {
	return &TextHandler{
		log:   log.With("handler", "TextHandler"),
		store: store,
	}
}

type docRequest struct {
	Text string `json:"text" binding:"required"`
}

// POST /api/ingest
func (h *TextHandler) Ingest(c *gin.Context) {
	var req docRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	id := h.store.Ingest(req.Text)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// POST /api/search?k=3
func (h *TextHandler) Search(c *gin.Context) {
	var req docRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	k := 3
	if v := c.Query("k"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(c, err)
			return
		}
		k = parsed
	}
	c.JSON(http.StatusOK, gin.H{"chunks": h.store.Search(req.Text, k)})
}
