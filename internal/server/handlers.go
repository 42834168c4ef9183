package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"document-qa/internal/models"
	"document-qa/internal/parser"
	"document-qa/internal/session"
)

type questionRequest struct {
	Question string `json:"question" binding:"required"`
}

type exchangeResponse struct {
	Question string               `json:"question"`
	Answer   string               `json:"answer"`
	Context  []models.ScoredChunk `json:"context,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type messageResponse struct {
	models.ChatMessage
	HTML string `json:"html,omitempty"`
}

func (s *Server) createSession(c *gin.Context) {
	sess, err := s.sessions.Create()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if !s.sessions.Delete(id) {
		writeError(c, fmt.Errorf("%w: %s", session.ErrSessionNotFound, id))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadDocument(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadSize)
	header, err := c.FormFile("file")
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required: " + err.Error()})
		return
	}
	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(c, err)
		return
	}

	log.Debug().
		Str("session", sess.ID).
		Str("file", header.Filename).
		Str("mime", parser.DetectMIME(data)).
		Int64("bytes", header.Size).
		Msg("Upload received")

	res, err := s.orchestrator.Upload(c.Request.Context(), sess, header.Filename, data)
	if err != nil {
		s.metrics.uploads.WithLabelValues(outcome(err)).Inc()
		writeError(c, err)
		return
	}
	if res.Reused {
		s.metrics.uploads.WithLabelValues("reused").Inc()
	} else {
		s.metrics.uploads.WithLabelValues("ok").Inc()
		s.metrics.ingestion.Observe(res.Duration.Seconds())
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) askQuestion(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ex := s.orchestrator.Ask(c.Request.Context(), sess, req.Question)
	s.metrics.questions.WithLabelValues(outcome(ex.Err)).Inc()

	resp := exchangeResponse{Question: ex.Question, Answer: ex.Answer, Context: ex.Context}
	if ex.Err != nil {
		resp.Error = ex.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listMessages(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	renderHTML := c.Query("format") == "html"

	history := sess.Snapshot().History
	out := make([]messageResponse, 0, len(history))
	for _, msg := range history {
		item := messageResponse{ChatMessage: msg}
		if renderHTML && msg.Role == models.RoleAssistant {
			rendered, err := renderMarkdown(msg.Content)
			if err != nil {
				writeError(c, err)
				return
			}
			item.HTML = rendered
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (s *Server) resetSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	s.orchestrator.Reset(sess)
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return sess, true
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": outcome(err)})
}

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionClosed):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrNoReadableText),
		errors.Is(err, models.ErrEmptySheet),
		errors.Is(err, models.ErrEmptyChunkSet),
		errors.Is(err, models.ErrMalformedFile):
		return http.StatusUnprocessableEntity
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
