package onair

import "sort"

// State is a question's moderation lifecycle position.
type State string

const (
	Pending   State = "pending"
	Answering State = "answering"
	Answered  State = "answered"
)

// QuestionView is a Question plus the moderation hints for one specific
// viewer. Hints are derived per response from (state, viewer privilege) and
// never stored, so one viewer's privilege cannot leak into another's view.
type QuestionView struct {
	Question
	CanAnswer       bool `json:"canAnswer"`
	CanMarkAnswered bool `json:"canMarkAnswered"`
}

// View computes the per-viewer rendering of q.
func (q Question) View(moderator bool) QuestionView {
	return QuestionView{
		Question:        q,
		CanAnswer:       moderator && q.State == Pending,
		CanMarkAnswered: moderator && q.State == Answering,
	}
}

// ViewAll computes per-viewer renderings for a slice of questions.
func ViewAll(qs []Question, moderator bool) []QuestionView {
	out := make([]QuestionView, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.View(moderator))
	}
	return out
}

// stateRank orders Answering first, Pending second, Answered last.
func stateRank(s State) int {
	switch s {
	case Answering:
		return 0
	case Pending:
		return 1
	default:
		return 2
	}
}

// SortByPriority orders questions for display: the question being answered
// first, then pending questions by descending votes, then answered ones.
// Ties break on earliest post. The sort key is computed here at read time;
// vote counts are never overloaded to force ordering.
func SortByPriority(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		ri, rj := stateRank(qs[i].State), stateRank(qs[j].State)
		if ri != rj {
			return ri < rj
		}
		if qs[i].Votes != qs[j].Votes {
			return qs[i].Votes > qs[j].Votes
		}
		return qs[i].PostedAt.Before(qs[j].PostedAt)
	})
}
