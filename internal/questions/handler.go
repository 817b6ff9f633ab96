// Package questions implements the question-level HTTP operations: asking,
// voting, toggling flags, and the single and bulk text lookups.
package questions

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liveq-app/backend/internal/auth"
	"github.com/liveq-app/backend/internal/store"
	"github.com/liveq-app/backend/pkg/ident"
	"github.com/liveq-app/backend/pkg/response"
)

// Handler handles question HTTP operations.
type Handler struct {
	store  store.Store
	logger *zap.Logger
}

// NewHandler creates a questions handler.
func NewHandler(s store.Store, logger *zap.Logger) *Handler {
	return &Handler{store: s, logger: logger}
}

// AskRequest is the body for POST /event/:eid.
type AskRequest struct {
	Body  string  `json:"body"`
	Asker *string `json:"asker"`
}

// Ask handles POST /event/:eid. The text must contain more than one word
// after trimming; single-word submissions are overwhelmingly accidents or
// spam.
func (h *Handler) Ask(c *gin.Context) {
	eid, err := ident.Parse(c.Param("eid"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	trimmed := strings.TrimSpace(req.Body)
	if trimmed == "" {
		h.logger.Warn("ignoring empty question", zap.String("eid", eid.String()))
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	if !strings.Contains(trimmed, " ") {
		h.logger.Warn("rejecting single-word question", zap.String("eid", eid.String()), zap.String("body", req.Body))
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}

	qid := ident.New()
	switch err := h.store.CreateQuestion(c.Request.Context(), eid.String(), qid.String(), req.Body, req.Asker); {
	case err == nil:
		h.logger.Debug("created question", zap.String("eid", eid.String()), zap.String("qid", qid.String()))
		response.JSON(c, response.CacheNone, gin.H{"id": qid.String()})
	case errors.Is(err, store.ErrEventNotFound):
		h.logger.Warn("question for non-existing event", zap.String("eid", eid.String()))
		response.Error(c, http.StatusNotFound, response.CacheMissing)
	default:
		h.logger.Error("create question failed",
			zap.String("eid", eid.String()), zap.String("qid", qid.String()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
	}
}

// Vote handles POST /vote/:qid/:updown. Nothing tracks who voted; the floor
// at zero is the only server-side rule.
func (h *Handler) Vote(c *gin.Context) {
	qid, err := ident.Parse(c.Param("qid"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	dir, ok := store.ParseDirection(c.Param("updown"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}

	votes, err := h.store.Vote(c.Request.Context(), qid.String(), dir)
	if err != nil {
		h.logger.Error("vote failed", zap.String("qid", qid.String()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
		return
	}
	h.logger.Debug("voted for question", zap.String("qid", qid.String()))
	response.JSON(c, response.CacheNone, gin.H{"votes": votes})
}

// Toggle handles POST /event/:eid/questions/:secret/:qid/toggle/:property
// with a body of exactly "on" or "off". It requires the event secret and
// echoes the state it applied.
func (h *Handler) Toggle(c *gin.Context) {
	ctx := c.Request.Context()
	eid, err := ident.Parse(c.Param("eid"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	qid, err := ident.Parse(c.Param("qid"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	prop, ok := store.ParseProperty(c.Param("property"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	var on bool
	switch string(raw) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		h.logger.Error("invalid toggle value", zap.String("qid", qid.String()), zap.ByteString("body", raw))
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}

	switch err := auth.CheckSecret(ctx, h.store, eid.String(), c.Param("secret")); {
	case err == nil:
	case errors.Is(err, auth.ErrWrongSecret):
		h.logger.Warn("attempted to toggle with incorrect secret", zap.String("eid", eid.String()))
		response.Error(c, http.StatusUnauthorized, response.CacheNone)
		return
	case errors.Is(err, store.ErrEventNotFound):
		response.Error(c, http.StatusNotFound, response.CacheNone)
		return
	default:
		h.logger.Error("secret verification failed", zap.String("eid", eid.String()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
		return
	}

	res, err := h.store.Toggle(ctx, qid.String(), store.Toggle{Property: prop, On: on})
	if err != nil {
		h.logger.Error("toggle failed",
			zap.String("qid", qid.String()), zap.String("property", string(prop)), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
		return
	}
	h.logger.Debug("toggled question property",
		zap.String("eid", eid.String()), zap.String("qid", qid.String()), zap.String("property", string(prop)))

	switch {
	case res.Hidden != nil:
		response.JSON(c, response.CacheNone, gin.H{"hidden": *res.Hidden})
	case res.Answered != nil:
		response.JSON(c, response.CacheNone, gin.H{"answered": *res.Answered})
	default:
		response.JSON(c, response.CacheNone, gin.H{})
	}
}

// Get handles GET /question/:qid and returns the raw question text.
func (h *Handler) Get(c *gin.Context) {
	qid, err := ident.Parse(c.Param("qid"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	text, err := h.store.GetQuestion(c.Request.Context(), qid.String())
	switch {
	case err == nil:
		response.Text(c, response.CacheImmutable, text)
	case errors.Is(err, store.ErrQuestionNotFound):
		h.logger.Warn("non-existing question", zap.String("qid", qid.String()))
		response.Error(c, http.StatusNotFound, response.CacheMissing)
	default:
		h.logger.Error("question lookup failed", zap.String("qid", qid.String()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
	}
}

// BatchGet handles GET /questions/:qids where :qids is a comma-separated id
// list. Unknown ids are omitted from the result; if none resolve, the whole
// lookup is a 404.
func (h *Handler) BatchGet(c *gin.Context) {
	raw := c.Param("qids")
	parts := strings.Split(raw, ",")
	qids := make([]string, 0, len(parts))
	for _, p := range parts {
		id, err := ident.Parse(p)
		if err != nil {
			h.logger.Warn("got invalid id list", zap.String("qids", raw), zap.Error(err))
			response.Error(c, http.StatusBadRequest, response.CacheNone)
			return
		}
		qids = append(qids, id.String())
	}

	res, err := h.store.BatchGetQuestions(c.Request.Context(), qids)
	if err != nil {
		h.logger.Error("batch question lookup failed", zap.Strings("qids", qids), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
		return
	}
	if len(res.Unprocessed) > 0 {
		// partial result; the client will come back for the rest
		h.logger.Warn("batch lookup left keys unprocessed", zap.Strings("qids", res.Unprocessed))
	}
	if len(res.Found) == 0 {
		h.logger.Warn("no valid qids", zap.Strings("qids", qids))
		response.Error(c, http.StatusNotFound, response.CacheMissing)
		return
	}

	body := make(map[string]gin.H, len(res.Found))
	for i := range res.Found {
		q := &res.Found[i]
		if _, err := ident.Parse(q.ID); err != nil || q.Text == "" {
			h.logger.Error("bad stored data for question", zap.String("qid", q.ID))
			response.Error(c, http.StatusInternalServerError, response.CacheNone)
			return
		}
		e := gin.H{"text": q.Text, "when": q.When}
		if q.Who != nil {
			e["who"] = *q.Who
		}
		body[q.ID] = e
	}
	response.JSON(c, response.CacheImmutable, body)
}
