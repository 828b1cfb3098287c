package app

import (
	"gorm.io/gorm"

	httpapi "github.com/yungbote/trainforge-backend/internal/http"
	httpH "github.com/yungbote/trainforge-backend/internal/http/handlers"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Project     *httpH.ProjectHandler
	Structure   *httpH.StructureHandler
	Workflow    *httpH.WorkflowHandler
	Content     *httpH.ContentHandler
	Intake      *httpH.IntakeHandler
	DebriefChat *httpH.DebriefChatHandler
	Realtime    *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, svc Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Project: httpH.NewProjectHandlerWithDeps(httpH.ProjectHandlerDeps{
			Log:       log,
			Projects:  svc.Projects,
			Sources:   svc.Sources,
			Structure: svc.Structure,
			Exporter:  svc.Exporter,
		}),
		Structure: httpH.NewStructureHandlerWithDeps(httpH.StructureHandlerDeps{Log: log, Structure: svc.Structure}),
		Workflow: httpH.NewWorkflowHandlerWithDeps(httpH.WorkflowHandlerDeps{
			Log:          log,
			Orchestrator: svc.Orchestrator,
			Structure:    svc.Structure,
			Emitter:      clients.Emitter,
		}),
		Content:     httpH.NewContentHandlerWithDeps(httpH.ContentHandlerDeps{Log: log, Content: svc.Content}),
		Intake:      httpH.NewIntakeHandlerWithDeps(httpH.IntakeHandlerDeps{Log: log, Intake: svc.Intake}),
		DebriefChat: httpH.NewDebriefChatHandlerWithDeps(httpH.DebriefChatHandlerDeps{Log: log, Chat: svc.DebriefChat}),
		Realtime:    httpH.NewRealtimeHandler(log, clients.Hub),
	}
}

func wireServer(log *logger.Logger, cfg Config, h Handlers) *httpapi.Server {
	return httpapi.NewServer(":"+cfg.Port, httpapi.RouterConfig{
		Log:                log,
		ServiceName:        cfg.Tracing.ServiceName,
		MaxUploadSize:      cfg.MaxUploadSize,
		CORSOrigins:        cfg.CORSOrigins,
		HealthHandler:      h.Health,
		ProjectHandler:     h.Project,
		StructureHandler:   h.Structure,
		WorkflowHandler:    h.Workflow,
		ContentHandler:     h.Content,
		IntakeHandler:      h.Intake,
		DebriefChatHandler: h.DebriefChat,
		RealtimeHandler:    h.Realtime,
	})
}
