package training

type ProjectStatus string

const (
	StatusInformationGathering ProjectStatus = "information_gathering"
	StatusProgramDesign        ProjectStatus = "program_design"
	StatusDebriefReview        ProjectStatus = "debrief_review"
	StatusMatrixCreation       ProjectStatus = "matrix_creation"
	StatusArticleCreation      ProjectStatus = "article_creation"
	StatusVideoCreation        ProjectStatus = "video_creation"
	StatusQuizCreation         ProjectStatus = "quiz_creation"
	StatusCompleted            ProjectStatus = "completed"
)

var statusOrder = []ProjectStatus{
	StatusInformationGathering,
	StatusProgramDesign,
	StatusDebriefReview,
	StatusMatrixCreation,
	StatusArticleCreation,
	StatusVideoCreation,
	StatusQuizCreation,
	StatusCompleted,
}

func (s ProjectStatus) Rank() int {
	for i, v := range statusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

func (s ProjectStatus) Valid() bool { return s.Rank() >= 0 }

type transitionKey struct {
	from ProjectStatus
	step string
}

var transitions = map[transitionKey]ProjectStatus{
	{StatusInformationGathering, StepDesignStarted}: StatusProgramDesign,
	{StatusProgramDesign, StepDebrief}:              StatusDebriefReview,
	{StatusDebriefReview, StepDebriefApproval}:      StatusMatrixCreation,
	{StatusProgramDesign, StepMatrixApproval}:       StatusArticleCreation,
	{StatusMatrixCreation, StepMatrixApproval}:      StatusArticleCreation,
	{StatusArticleCreation, StepArticlesApproved}:   StatusVideoCreation,
	{StatusVideoCreation, StepVideosApproved}:       StatusQuizCreation,
	{StatusQuizCreation, StepQuizzesApproved}:       StatusCompleted,
}

// Advance returns the status that follows current once step has completed.
// Content phases whose deliverable was not selected are skipped. Unknown pairs
// and backward moves leave the status unchanged.
func Advance(current ProjectStatus, step string, d Deliverables) (ProjectStatus, bool) {
	next, ok := transitions[transitionKey{current, step}]
	if !ok {
		return current, false
	}
	next = skipUnselected(next, d)
	if next.Rank() <= current.Rank() {
		return current, false
	}
	return next, true
}

func skipUnselected(s ProjectStatus, d Deliverables) ProjectStatus {
	for {
		switch {
		case s == StatusArticleCreation && !d.Articles:
			s = StatusVideoCreation
		case s == StatusVideoCreation && !d.Videos:
			s = StatusQuizCreation
		case s == StatusQuizCreation && !d.Quizzes:
			s = StatusCompleted
		default:
			return s
		}
	}
}
