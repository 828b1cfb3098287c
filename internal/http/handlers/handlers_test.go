package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trainforge-backend/internal/agents"
	"github.com/yungbote/trainforge-backend/internal/conversation"
	"github.com/yungbote/trainforge-backend/internal/data/repos"
	"github.com/yungbote/trainforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/services"
)

// cannedGateway answers every call with the same text.
type cannedGateway struct{ content string }

func (g cannedGateway) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: g.content, Model: req.Model}, nil
}

func (g cannedGateway) Stream(ctx context.Context, req llm.Request, onChunk llm.ChunkFunc) (*llm.Response, error) {
	onChunk(g.content)
	return g.Complete(ctx, req)
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return env.Error
}

func intakeRouter(t *testing.T, modelOutput string) *gin.Engine {
	t.Helper()
	log := testutil.Logger(t)
	registry, err := agents.Load("", log)
	if err != nil {
		t.Fatalf("agents.Load: %v", err)
	}
	svc := services.NewIntakeService(log, registry, cannedGateway{content: modelOutput}, conversation.NewMemoryStore(0))
	h := NewIntakeHandlerWithDeps(IntakeHandlerDeps{Log: log, Intake: svc})
	r := gin.New()
	r.POST("/api/briefs/parse", h.ParseBrief)
	r.POST("/api/interviews/:key/messages", h.Interview)
	r.GET("/api/interviews/:key", h.Transcript)
	return r
}

func TestParseBriefMalformedOutputReturnsPreview(t *testing.T) {
	raw := "I am sorry, I could not find a brief in that text. " + strings.Repeat("x", 700)
	r := intakeRouter(t, raw)

	w := doJSON(r, http.MethodPost, "/api/briefs/parse", gin.H{"text": "We need onboarding for support engineers."})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d body=%s", w.Code, w.Body.String())
	}
	e := decodeError(t, w)
	if e.Code != "brief_parse_failed" {
		t.Fatalf("code: want=brief_parse_failed got=%q", e.Code)
	}
	if !strings.HasPrefix(e.Preview, "I am sorry") {
		t.Fatalf("preview: got=%q", e.Preview)
	}
	if n := len([]rune(e.Preview)); n != apierr.PreviewLimit+1 {
		t.Fatalf("preview length: want=%d got=%d", apierr.PreviewLimit+1, n)
	}
}

func TestParseBriefReturnsFields(t *testing.T) {
	r := intakeRouter(t, "Here it is:\n```json\n{\"name\":\"Support onboarding\",\"objectives\":\"Handle tickets\",\"deliverables\":\"articles\"}\n```")

	w := doJSON(r, http.MethodPost, "/api/briefs/parse", gin.H{"text": "brief"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Brief struct {
			Name string `json:"name"`
		} `json:"brief"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Brief.Name != "Support onboarding" {
		t.Fatalf("name: got=%q", out.Brief.Name)
	}
}

func TestParseBriefRequiresText(t *testing.T) {
	r := intakeRouter(t, "unused")
	w := doJSON(r, http.MethodPost, "/api/briefs/parse", gin.H{"text": "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", w.Code)
	}
	if e := decodeError(t, w); e.Code != "missing_text" {
		t.Fatalf("code: got=%q", e.Code)
	}
}

func TestInterviewStreamsAndStoresTranscript(t *testing.T) {
	r := intakeRouter(t, "Who is the audience?")

	w := doJSON(r, http.MethodPost, "/api/interviews/acme/messages", gin.H{"message": "We onboard support staff."})
	frames := readFrames(t, w.Body.String())
	if got := frameTypes(frames); strings.Join(got, ",") != "text,complete,done" {
		t.Fatalf("frame types: got=%v", got)
	}

	w = doJSON(r, http.MethodGet, "/api/interviews/acme", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("transcript status: got=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		History []llm.Message `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.History) != 2 || out.History[1].Content != "Who is the audience?" {
		t.Fatalf("history: got=%+v", out.History)
	}

	w = doJSON(r, http.MethodGet, "/api/interviews/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown transcript: want=404 got=%d", w.Code)
	}
}

func projectRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	h := NewProjectHandlerWithDeps(ProjectHandlerDeps{
		Log:       log,
		Projects:  services.NewProjectService(db, log, set.Project),
		Sources:   services.NewSourceService(log, set.Project, set.SourceMaterial),
		Structure: services.NewStructureService(log, set),
	})
	r := gin.New()
	r.POST("/api/projects", h.Create)
	r.GET("/api/projects/:id", h.Get)
	r.PATCH("/api/projects/:id", h.Update)
	r.POST("/api/projects/:id/sources", h.CreateSource)
	r.GET("/api/projects/:id/steps", h.Steps)
	return r
}

func TestProjectHandlerMapsErrorKinds(t *testing.T) {
	r := projectRouter(t)

	w := doJSON(r, http.MethodPost, "/api/projects", gin.H{"name": "Support onboarding", "deliverables": "articles"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: want=201 got=%d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Project struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"project"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Project.Status != "information_gathering" {
		t.Fatalf("status: got=%q", created.Project.Status)
	}

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"missing name", http.MethodPost, "/api/projects", gin.H{"name": ""}, http.StatusBadRequest, "missing_name"},
		{"bad deliverables", http.MethodPost, "/api/projects", gin.H{"name": "x", "deliverables": "podcasts"}, http.StatusBadRequest, "invalid_deliverables"},
		{"bad id", http.MethodGet, "/api/projects/not-a-uuid", nil, http.StatusBadRequest, "invalid_id"},
		{"unknown project", http.MethodGet, "/api/projects/" + uuid.NewString(), nil, http.StatusNotFound, ""},
		{"bad quiz count", http.MethodPatch, "/api/projects/" + created.Project.ID.String(), gin.H{"quiz_question_count": 0}, http.StatusBadRequest, "invalid_quiz_question_count"},
		{"bad fidelity", http.MethodPost, "/api/projects/" + created.Project.ID.String() + "/sources", gin.H{"content": "policy", "fidelity": "loose"}, http.StatusBadRequest, "invalid_fidelity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, tc.method, tc.path, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status: want=%d got=%d body=%s", tc.status, w.Code, w.Body.String())
			}
			if tc.code != "" {
				if e := decodeError(t, w); e.Code != tc.code {
					t.Fatalf("code: want=%q got=%q", tc.code, e.Code)
				}
			}
		})
	}

	w = doJSON(r, http.MethodGet, "/api/projects/"+created.Project.ID.String()+"/steps", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("steps: want=200 got=%d", w.Code)
	}
}
