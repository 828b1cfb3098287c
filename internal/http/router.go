package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/trainforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/trainforge-backend/internal/http/middleware"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	// MaxUploadSize bounds source-material bodies. Zero disables the limit.
	MaxUploadSize int64
	CORSOrigins   []string

	HealthHandler      *httpH.HealthHandler
	ProjectHandler     *httpH.ProjectHandler
	StructureHandler   *httpH.StructureHandler
	WorkflowHandler    *httpH.WorkflowHandler
	ContentHandler     *httpH.ContentHandler
	IntakeHandler      *httpH.IntakeHandler
	DebriefChatHandler *httpH.DebriefChatHandler
	RealtimeHandler    *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "trainforge-backend"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.TraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Projects
	if p := cfg.ProjectHandler; p != nil {
		api.GET("/projects", p.List)
		api.POST("/projects", p.Create)
		api.GET("/projects/:id", p.Get)
		api.PATCH("/projects/:id", p.Update)
		api.DELETE("/projects/:id", p.Delete)
		api.GET("/projects/:id/sources", p.ListSources)
		api.POST("/projects/:id/sources", httpMW.BodyLimit(cfg.MaxUploadSize), p.CreateSource)
		api.DELETE("/sources/:id", p.DeleteSource)
		api.GET("/projects/:id/steps", p.Steps)
		api.GET("/projects/:id/export", p.Export)
	}

	// Chapters / Sessions / Matrix
	if s := cfg.StructureHandler; s != nil {
		api.GET("/projects/:id/chapters", s.Chapters)
		api.GET("/projects/:id/matrix", s.Matrix)
		api.GET("/chapters/:id", s.Chapter)
		api.PATCH("/chapters/:id", s.UpdateChapter)
		api.GET("/sessions/:id", s.Session)
		api.PATCH("/sessions/:id", s.UpdateSession)
	}

	// Phases (SSE) and approvals
	if w := cfg.WorkflowHandler; w != nil {
		api.POST("/projects/:id/design", w.Design)
		api.POST("/projects/:id/matrix", w.Matrix)
		api.POST("/projects/:id/matrix/approve", w.ApproveMatrix)
		api.GET("/projects/:id/debrief", w.Debrief)
		api.POST("/projects/:id/debrief/approve", w.ApproveDebrief)
		api.POST("/projects/:id/debrief/feedback", w.DebriefFeedback)
		api.POST("/sessions/:id/article", w.GenerateArticle)
		api.POST("/sessions/:id/video", w.GenerateVideo)
		api.POST("/sessions/:id/quiz", w.GenerateQuiz)
		api.POST("/chapters/:id/batch/:kind", w.Batch)
		api.POST("/articles/:id/approve", w.ApproveArticle)
		api.POST("/videos/:id/approve", w.ApproveVideo)
		api.POST("/quizzes/:id/approve", w.ApproveQuiz)
	}

	// Content
	if ct := cfg.ContentHandler; ct != nil {
		api.GET("/sessions/:id/article", ct.Article)
		api.PATCH("/articles/:id", ct.UpdateArticle)
		api.GET("/sessions/:id/video", ct.Video)
		api.GET("/sessions/:id/quiz", ct.Quiz)
	}

	// Brief intake
	if in := cfg.IntakeHandler; in != nil {
		api.POST("/briefs/parse", in.ParseBrief)
		api.POST("/interviews/:key/messages", in.Interview)
		api.GET("/interviews/:key", in.Transcript)
		api.DELETE("/interviews/:key", in.ClearInterview)
		api.POST("/interviews/:key/brief", in.BriefFromInterview)
	}

	// Debrief Q&A
	if d := cfg.DebriefChatHandler; d != nil {
		api.POST("/projects/:id/debrief/chat", d.Ask)
		api.GET("/projects/:id/debrief/chat", d.History)
		api.DELETE("/projects/:id/debrief/chat", d.Clear)
	}

	// Realtime (SSE)
	if rt := cfg.RealtimeHandler; rt != nil {
		api.GET("/projects/:id/events", rt.ProjectEvents)
	}

	return r
}
