package questions_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liveq-app/backend/internal/questions"
	"github.com/liveq-app/backend/internal/store"
	"github.com/liveq-app/backend/pkg/ident"
)

func newTestRouter(st store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := questions.NewHandler(st, zap.NewNop())

	r := gin.New()
	r.POST("/event/:eid", h.Ask)
	r.POST("/event/:eid/questions/:secret/:qid/toggle/:property", h.Toggle)
	r.POST("/vote/:qid/:updown", h.Vote)
	r.GET("/question/:qid", h.Get)
	r.GET("/questions/:qids", h.BatchGet)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// seed creates an event and one question directly in the store and returns
// their coordinates.
func seed(t *testing.T, st store.Store) (eid, secret, qid string) {
	t.Helper()
	ctx := context.Background()
	eid = ident.New().String()
	secret = ident.NewSecret()
	require.NoError(t, st.CreateEvent(ctx, eid, secret))
	qid = ident.New().String()
	require.NoError(t, st.CreateQuestion(ctx, eid, qid, "hello world", nil))
	return eid, secret, qid
}

func TestAsk(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	eid, _, _ := seed(t, st)

	w := do(t, r, http.MethodPost, "/event/"+eid, `{"body":"why is the sky blue?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	_, err := ident.Parse(body.ID)
	assert.NoError(t, err)

	text, err := st.GetQuestion(context.Background(), body.ID)
	require.NoError(t, err)
	assert.Equal(t, "why is the sky blue?", text)
}

func TestAskValidation(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	eid, _, _ := seed(t, st)

	for name, body := range map[string]string{
		"empty":       `{"body":""}`,
		"whitespace":  `{"body":"   "}`,
		"single word": `{"body":"why"}`,
		"not json":    `why is the sky blue?`,
	} {
		w := do(t, r, http.MethodPost, "/event/"+eid, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	w := do(t, r, http.MethodPost, "/event/nonsense", `{"body":"hello world"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/event/"+ident.New().String(), `{"body":"hello world"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoteFloor(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	_, _, qid := seed(t, st)

	vote := func(dir string) int {
		w := do(t, r, http.MethodPost, "/vote/"+qid+"/"+dir, "")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Votes int `json:"votes"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body.Votes
	}

	assert.Equal(t, 2, vote("up"))
	assert.Equal(t, 1, vote("down"))
	assert.Equal(t, 0, vote("down"))
	assert.Equal(t, 0, vote("down"))
	assert.Equal(t, 1, vote("up"))
}

func TestVoteBadRequest(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	_, _, qid := seed(t, st)

	w := do(t, r, http.MethodPost, "/vote/"+qid+"/sideways", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/vote/nonsense/up", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func togglePath(eid, secret, qid, prop string) string {
	return fmt.Sprintf("/event/%s/questions/%s/%s/toggle/%s", eid, secret, qid, prop)
}

func TestToggleHidden(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	eid, secret, qid := seed(t, st)

	w := do(t, r, http.MethodPost, togglePath(eid, secret, qid, "hidden"), "on")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hidden":true}`, w.Body.String())

	w = do(t, r, http.MethodPost, togglePath(eid, secret, qid, "hidden"), "off")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hidden":false}`, w.Body.String())
}

func TestToggleAnswered(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	eid, secret, qid := seed(t, st)

	w := do(t, r, http.MethodPost, togglePath(eid, secret, qid, "answered"), "on")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Answered int64 `json:"answered"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Positive(t, body.Answered)

	w = do(t, r, http.MethodPost, togglePath(eid, secret, qid, "answered"), "off")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestToggleRejections(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	eid, secret, qid := seed(t, st)

	w := do(t, r, http.MethodPost, togglePath(eid, secret, qid, "hidden"), "maybe")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, togglePath(eid, secret, qid, "starred"), "on")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	wrong := strings.Repeat("x", ident.SecretLength)
	w = do(t, r, http.MethodPost, togglePath(eid, wrong, qid, "hidden"), "on")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, togglePath(ident.New().String(), secret, qid, "hidden"), "on")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQuestionText(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	_, _, qid := seed(t, st)

	w := do(t, r, http.MethodGet, "/question/"+qid, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world", w.Body.String())
	assert.Equal(t, "public, max-age=604800", w.Header().Get("Cache-Control"))

	w = do(t, r, http.MethodGet, "/question/"+ident.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "max-age=3600", w.Header().Get("Cache-Control"))
}

func TestBatchGet(t *testing.T) {
	st := store.NewMemory()
	r := newTestRouter(st)
	eid, _, q1 := seed(t, st)

	who := "curious"
	q2 := ident.New().String()
	require.NoError(t, st.CreateQuestion(context.Background(), eid, q2, "hello moon", &who))

	w := do(t, r, http.MethodGet, "/questions/"+q1+","+q2, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]struct {
		Text string  `json:"text"`
		When int64   `json:"when"`
		Who  *string `json:"who"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "hello world", body[q1].Text)
	assert.Nil(t, body[q1].Who)
	assert.Positive(t, body[q1].When)
	assert.Equal(t, "hello moon", body[q2].Text)
	require.NotNil(t, body[q2].Who)
	assert.Equal(t, who, *body[q2].Who)

	// unknown ids drop out silently as long as something resolves
	w = do(t, r, http.MethodGet, "/questions/"+q1+","+ident.New().String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	body = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 1)

	w = do(t, r, http.MethodGet, "/questions/"+ident.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/questions/"+q1+",nonsense", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
