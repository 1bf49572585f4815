package intake

import (
	"math/rand/v2"
	"sync"
	"time"
)

// ClosingReply announces that the summary is being prepared.
const ClosingReply = "Thank you for sharing all of this with me. I have a good understanding of what you've experienced. Let me create a summary of your report that you can review."

var supportiveStatements = [...]string{
	"Thank you for sharing that with me. Your experience is valid and important.",
	"I want you to know that what happened to you is not okay, and it's not your fault.",
	"You're showing incredible strength by speaking up about this.",
	"Your safety and wellbeing are the most important things right now.",
	"I'm here to listen and support you through this process.",
}

var followUpQuestions = [...]string{
	"Can you provide more details about the specific incidents?",
	"How long has this been going on?",
	"Have you told anyone else about this?",
	"Do you feel safe in your current situation?",
	"What would help you feel more supported right now?",
	"Are there any patterns you've noticed in these incidents?",
}

var genericPrompts = [...]string{
	"I'm sorry to hear about your experience. Can you tell me more about when this happened?",
	"That sounds very difficult. How did this situation make you feel?",
	"Thank you for sharing that with me. Can you describe the setting where this occurred?",
	"I understand this is hard to talk about. Were there any witnesses to what happened?",
	"You're being very brave by sharing this. How has this affected your daily life?",
	"Can you tell me about any steps you've already taken to address this situation?",
	"What kind of support do you feel you need right now?",
	"Have you experienced anything like this before, or was this an isolated incident?",
	"Thank you for trusting me with your story. Is there anything else important you'd like me to know?",
}

// SupportiveStatements returns a copy of the supportive pool.
func SupportiveStatements() []string { return append([]string{}, supportiveStatements[:]...) }

// FollowUpQuestions returns a copy of the follow-up pool.
func FollowUpQuestions() []string { return append([]string{}, followUpQuestions[:]...) }

// GenericPrompts returns a copy of the generic pool.
func GenericPrompts() []string { return append([]string{}, genericPrompts[:]...) }

// NewRand returns a seeded PCG source. Equal seeds give equal sequences.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Selector picks canned replies when the backend cannot answer.
// Picks are uniform and independent; repeats are allowed.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector creates a Selector drawing from rnd. A nil rnd is seeded
// from the clock.
func NewSelector(rnd *rand.Rand) *Selector {
	if rnd == nil {
		rnd = NewRand(uint64(time.Now().UnixNano()))
	}
	return &Selector{rnd: rnd}
}

// Reply composes the fallback reply for a phase.
func (s *Selector) Reply(p Phase) string {
	switch p {
	case PhaseEarly:
		return s.pick(supportiveStatements[:]) + " " + s.pick(followUpQuestions[:])
	case PhaseMid:
		return s.pick(followUpQuestions[:])
	case PhaseClosing:
		return ClosingReply
	default:
		return s.pick(genericPrompts[:])
	}
}

func (s *Selector) pick(pool []string) string {
	s.mu.Lock()
	i := s.rnd.IntN(len(pool))
	s.mu.Unlock()
	return pool[i]
}
