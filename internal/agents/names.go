package agents

const (
	BriefParser           = "brief-parser"
	Interviewer           = "interviewer"
	Researcher            = "researcher"
	ResearchValidator     = "research-validator"
	DebriefWriter         = "debrief-writer"
	SourceAnalyst         = "source-analyst"
	ProgramArchitect      = "program-architect"
	InstructionalDesigner = "instructional-designer"
	ActivityDesigner      = "activity-designer"
	MatrixAuthor          = "matrix-author"
	ProgramDesigner       = "program-designer"
	ArticleWriter         = "article-writer"
	HistReviewer          = "hist-reviewer"
	FactChecker           = "fact-checker"
	VideoNarrator         = "video-narrator"
	QuizDesigner          = "quiz-designer"
	FeedbackResponder     = "feedback-responder"
	DebriefAssistant      = "debrief-assistant"

	// User is the agent name recorded on human approval steps.
	User = "user"
)
