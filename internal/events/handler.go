// Package events implements the session-level HTTP operations: creating an
// event, probing its existence, and the guest/host question listings.
package events

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liveq-app/backend/internal/auth"
	"github.com/liveq-app/backend/internal/models"
	"github.com/liveq-app/backend/internal/ranking"
	"github.com/liveq-app/backend/internal/store"
	"github.com/liveq-app/backend/pkg/ident"
	"github.com/liveq-app/backend/pkg/response"
)

// Handler handles event HTTP operations.
type Handler struct {
	store  store.Store
	topN   int
	logger *zap.Logger
}

// NewHandler creates an events handler. topN is how many questions get exact
// placement at the head of each listing.
func NewHandler(s store.Store, topN int, logger *zap.Logger) *Handler {
	if topN <= 0 {
		topN = ranking.DefaultTopN
	}
	return &Handler{store: s, topN: topN, logger: logger}
}

// Create handles POST /event. The secret in the response is the caller's
// only chance to learn it.
func (h *Handler) Create(c *gin.Context) {
	eid := ident.New()
	secret := ident.NewSecret()
	if err := h.store.CreateEvent(c.Request.Context(), eid.String(), secret); err != nil {
		h.logger.Error("create event failed", zap.String("eid", eid.String()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
		return
	}
	h.logger.Debug("created event", zap.String("eid", eid.String()))
	response.JSON(c, response.CacheNone, gin.H{"id": eid.String(), "secret": secret})
}

// Get handles GET /event/:eid, an existence probe so long-lived clients stop
// polling for sessions that never existed or have expired.
func (h *Handler) Get(c *gin.Context) {
	eid, err := ident.Parse(c.Param("eid"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}
	switch err := h.store.GetEvent(c.Request.Context(), eid.String()); {
	case err == nil:
		response.JSON(c, response.CacheImmutable, gin.H{})
	case errors.Is(err, store.ErrEventNotFound):
		h.logger.Warn("non-existing event", zap.String("eid", eid.String()))
		response.Error(c, http.StatusNotFound, response.CacheMissing)
	default:
		h.logger.Error("event lookup failed", zap.String("eid", eid.String()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
	}
}

// List handles GET /event/:eid/questions, the guest view: hidden questions
// are absent as if they never existed.
func (h *Handler) List(c *gin.Context) {
	h.list(c, nil)
}

// ListAll handles GET /event/:eid/questions/:secret, the host view with
// hidden questions included.
func (h *Handler) ListAll(c *gin.Context) {
	secret := c.Param("secret")
	h.list(c, &secret)
}

func (h *Handler) list(c *gin.Context, secret *string) {
	ctx := c.Request.Context()
	eid, err := ident.Parse(c.Param("eid"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CacheNone)
		return
	}

	hasSecret := false
	if secret != nil {
		switch err := auth.CheckSecret(ctx, h.store, eid.String(), *secret); {
		case err == nil:
			hasSecret = true
		case errors.Is(err, auth.ErrWrongSecret):
			h.logger.Warn("attempted to access event with incorrect secret", zap.String("eid", eid.String()))
			response.Error(c, http.StatusUnauthorized, response.CacheBadAuth)
			return
		case errors.Is(err, store.ErrEventNotFound):
			// events are unlikely to re-appear under the same id
			response.Error(c, http.StatusNotFound, response.CacheBadAuth)
			return
		default:
			h.logger.Error("secret verification failed", zap.String("eid", eid.String()), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, response.CacheNone)
			return
		}
	} else {
		switch err := h.store.GetEvent(ctx, eid.String()); {
		case err == nil:
		case errors.Is(err, store.ErrEventNotFound):
			response.Error(c, http.StatusNotFound, response.CacheBadAuth)
			return
		default:
			h.logger.Error("event lookup failed", zap.String("eid", eid.String()), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, response.CacheNone)
			return
		}
	}

	qs, err := h.store.ListQuestions(ctx, eid.String(), hasSecret)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrEventNotFound):
		h.logger.Warn("list for non-existing event", zap.String("eid", eid.String()))
		response.Error(c, http.StatusNotFound, response.CacheMissing)
		return
	default:
		h.logger.Error("question list failed", zap.String("eid", eid.String()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CacheNone)
		return
	}

	// a record with an unparseable id is corrupt; drop it rather than
	// failing the whole listing
	valid := qs[:0]
	for _, q := range qs {
		if _, err := ident.Parse(q.ID); err != nil {
			h.logger.Error("found question with malformed id",
				zap.String("eid", eid.String()), zap.String("qid", q.ID), zap.Error(err))
			continue
		}
		valid = append(valid, q)
	}

	ranked := ranking.Rank(valid, hasSecret, h.topN, time.Now())
	body := make([]gin.H, 0, len(ranked))
	for i := range ranked {
		body = append(body, serializeQuestion(&ranked[i]))
	}

	cache := response.CacheGuestList
	if hasSecret {
		cache = response.CacheHostList
	}
	response.JSON(c, cache, body)
}

func serializeQuestion(q *models.Question) gin.H {
	e := gin.H{
		"qid":    q.ID,
		"votes":  q.Votes,
		"hidden": q.Hidden,
	}
	if q.Answered != nil {
		e["answered"] = *q.Answered
	}
	return e
}
