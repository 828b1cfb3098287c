package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/trainforge-backend/internal/data/repos"
	"github.com/yungbote/trainforge-backend/internal/export"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/services"
	"github.com/yungbote/trainforge-backend/internal/workflow"
)

type Services struct {
	Orchestrator *workflow.Orchestrator
	Projects     services.ProjectService
	Sources      services.SourceService
	Structure    services.StructureService
	Content      services.ContentService
	Intake       services.IntakeService
	DebriefChat  services.DebriefChatService
	Exporter     *export.Exporter
}

func wireServices(db *gorm.DB, log *logger.Logger, set repos.Set, clients Clients) Services {
	log.Info("Wiring services...")
	// The conversation store doubles as the per-session generation lock.
	orch := workflow.NewOrchestrator(db, log, set, clients.Registry, clients.Gateway, clients.Store)
	return Services{
		Orchestrator: orch,
		Projects:     services.NewProjectService(db, log, set.Project),
		Sources:      services.NewSourceService(log, set.Project, set.SourceMaterial),
		Structure:    services.NewStructureService(log, set),
		Content:      services.NewContentService(log, set),
		Intake:       services.NewIntakeService(log, clients.Registry, clients.Gateway, clients.Store),
		DebriefChat:  services.NewDebriefChatService(log, orch, clients.Registry, clients.Gateway, clients.Store),
		Exporter:     export.NewExporter(log, set),
	}
}
