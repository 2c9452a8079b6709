package learning

import (
	"fmt"
	"strings"
	"unicode"
)

type GoalType string

const (
	GoalTestPrep    GoalType = "test_prep"
	GoalLanguage    GoalType = "language"
	GoalProgramming GoalType = "programming"
	GoalProject     GoalType = "project"
	GoalCareer      GoalType = "career"
	GoalGeneral     GoalType = "general"
)

// AllGoalTypes returns goal types in classification priority order.
func AllGoalTypes() []GoalType {
	return []GoalType{GoalTestPrep, GoalLanguage, GoalProgramming, GoalProject, GoalCareer, GoalGeneral}
}

func (g GoalType) IsValid() bool {
	for _, t := range AllGoalTypes() {
		if g == t {
			return true
		}
	}
	return false
}

// StepTemplate is a deterministic step skeleton for a goal category.
type StepTemplate struct {
	Title    string
	Focus    string
	DoneWhen string
	Pitfall  string
	Action   ActionType
}

// Category is the result of classifying a goal.
type Category struct {
	Type      GoalType
	Matched   []string
	Templates []StepTemplate
}

var categoryKeywords = map[GoalType][]string{
	GoalTestPrep: {"exam", "exams", "test", "tests", "quiz", "midterm", "midterms", "final", "finals",
		"certification", "certificate", "sat", "gre", "gmat", "act", "ielts", "toefl", "pass", "boards", "grade"},
	GoalLanguage: {"spanish", "french", "german", "japanese", "chinese", "mandarin", "korean", "italian",
		"portuguese", "arabic", "language", "fluent", "fluency", "vocabulary", "conversational", "speak", "speaking"},
	GoalProgramming: {"python", "javascript", "typescript", "golang", "rust", "java", "kotlin", "swift", "code",
		"coding", "programming", "developer", "react", "sql", "algorithms", "algorithm", "backend", "frontend"},
	GoalProject: {"build", "create", "make", "launch", "ship", "portfolio", "app", "website", "prototype", "project"},
	GoalCareer:  {"job", "interview", "interviews", "career", "promotion", "resume", "hired", "role", "salary"},
}

var categoryTemplates = map[GoalType][]StepTemplate{
	GoalTestPrep: {
		{Title: "Baseline and syllabus map", Focus: "sit one timed past paper and map every syllabus topic to a score", DoneWhen: "every syllabus topic is tagged strong, shaky or unknown from a timed attempt", Pitfall: "rereading notes instead of attempting questions", Action: ActionTest},
		{Title: "Core method drills", Focus: "drill the highest-weight question types until each is solved without notes", DoneWhen: "8 of 10 core-type questions are solved without notes", Pitfall: "checking the solution before committing to an answer", Action: ActionPractice},
		{Title: "Weak-topic repair", Focus: "rebuild the three lowest-scoring topics from first principles", DoneWhen: "each weak topic scores at least 70% on a fresh question set", Pitfall: "spending time on topics that already score well", Action: ActionReview},
		{Title: "Mixed timed sets", Focus: "solve mixed question sets under exam timing", DoneWhen: "a mixed set is finished inside the time limit with 75% correct", Pitfall: "practicing one topic at a time only", Action: ActionPractice},
		{Title: "Full mock exams", Focus: "sit full mock exams in exam conditions and log every error", DoneWhen: "two full mocks are completed under real timing with an error log", Pitfall: "pausing the clock during mocks", Action: ActionTest},
		{Title: "Error-log sweep", Focus: "redo every logged error until it is solved cold", DoneWhen: "every error-log entry has been re-solved correctly once", Pitfall: "marking errors as careless without redoing them", Action: ActionReview},
		{Title: "Final rehearsal", Focus: "rehearse the exam-day routine with a last timed paper", DoneWhen: "a final paper scores at or above the target grade", Pitfall: "cramming new material the night before", Action: ActionTest},
	},
	GoalLanguage: {
		{Title: "Sound system and survival phrases", Focus: "drill pronunciation and 50 survival phrases with audio", DoneWhen: "50 phrases are produced aloud from English prompts without hesitation", Pitfall: "reading without speaking aloud", Action: ActionPractice},
		{Title: "Core vocabulary deck", Focus: "build a spaced-repetition deck of the 300 most frequent words", DoneWhen: "daily reviews hold 85% recall on the 300-word deck", Pitfall: "adding words faster than they are reviewed", Action: ActionCreate},
		{Title: "Present-tense sentences", Focus: "write and say sentences in the present tense about daily life", DoneWhen: "20 original present-tense sentences are written and read aloud", Pitfall: "translating word for word from English", Action: ActionCreate},
		{Title: "Listening blocks", Focus: "transcribe short native audio clips", DoneWhen: "three 1-minute clips are transcribed with under 10 errors each", Pitfall: "using subtitles in your own language", Action: ActionPractice},
		{Title: "Conversation practice", Focus: "hold timed conversations with a partner or tutor", DoneWhen: "a 10-minute conversation is held without switching languages", Pitfall: "scripting every sentence in advance", Action: ActionPractice},
		{Title: "Past and future frames", Focus: "add past and future tense frames to existing sentences", DoneWhen: "the 20 sentences are rewritten in past and future forms", Pitfall: "memorizing conjugation tables without using them", Action: ActionReview},
		{Title: "Real-world task", Focus: "complete a real task such as ordering, booking or a short call", DoneWhen: "one real interaction is completed entirely in the target language", Pitfall: "waiting to feel ready before trying", Action: ActionTest},
	},
	GoalProgramming: {
		{Title: "Environment and first program", Focus: "install the toolchain and run a small program from the command line", DoneWhen: "a program that reads input and prints a result runs from the terminal", Pitfall: "copying setup commands without running them", Action: ActionCreate},
		{Title: "Core syntax katas", Focus: "solve short katas on variables, control flow and functions", DoneWhen: "10 katas pass their tests without looking up syntax", Pitfall: "watching tutorials instead of typing code", Action: ActionPractice},
		{Title: "Data structures in use", Focus: "solve problems with lists, maps and structs", DoneWhen: "5 problems using collections pass their tests", Pitfall: "reaching for the first library found instead of the standard tools", Action: ActionPractice},
		{Title: "Small tool", Focus: "build a small command-line tool that reads a file and reports on it", DoneWhen: "the tool runs on a sample file and prints the expected report", Pitfall: "growing the scope before the first version works", Action: ActionCreate},
		{Title: "Tests and debugging", Focus: "add automated tests and fix failures with a debugger", DoneWhen: "the tool has passing tests for 3 edge cases", Pitfall: "testing only the happy path", Action: ActionTest},
		{Title: "Project milestone", Focus: "ship a larger project with a README", DoneWhen: "the project is published with a README and passing tests", Pitfall: "polishing before it works end to end", Action: ActionCreate},
		{Title: "Code review round", Focus: "get a review and apply the feedback", DoneWhen: "review feedback is applied and the change is merged", Pitfall: "arguing with feedback instead of testing it", Action: ActionReview},
	},
	GoalProject: {
		{Title: "Scope and success check", Focus: "write a one-page brief with the smallest version that counts as done", DoneWhen: "a one-page brief lists the 3 must-have features and a done test", Pitfall: "listing every feature you might want", Action: ActionCreate},
		{Title: "Skeleton build", Focus: "build a running skeleton that does one thing end to end", DoneWhen: "the skeleton runs and performs one real action", Pitfall: "designing for months before building", Action: ActionCreate},
		{Title: "Core feature", Focus: "implement the first must-have feature", DoneWhen: "the first must-have feature passes its done test", Pitfall: "working on polish before the core feature", Action: ActionCreate},
		{Title: "Remaining must-haves", Focus: "implement the remaining must-have features", DoneWhen: "all 3 must-have features pass their done tests", Pitfall: "adding features that are not on the brief", Action: ActionCreate},
		{Title: "User test", Focus: "put the project in front of two users and record what breaks", DoneWhen: "two users complete the main task and their issues are logged", Pitfall: "explaining the product instead of watching", Action: ActionTest},
		{Title: "Fix and launch", Focus: "fix the logged issues and publish", DoneWhen: "the logged issues are fixed and the project is public", Pitfall: "waiting for perfect before publishing", Action: ActionCreate},
	},
	GoalCareer: {
		{Title: "Target role breakdown", Focus: "collect 5 job postings and list the repeated requirements", DoneWhen: "a table lists every requirement with your evidence for it", Pitfall: "applying before knowing what is asked", Action: ActionRead},
		{Title: "Gap evidence", Focus: "produce one concrete piece of evidence for the biggest gap", DoneWhen: "one portfolio item covers the top missing requirement", Pitfall: "collecting certificates instead of evidence", Action: ActionCreate},
		{Title: "Story bank", Focus: "write 6 situation-action-result stories", DoneWhen: "6 stories are written and each is told aloud under 2 minutes", Pitfall: "memorizing scripts word for word", Action: ActionCreate},
		{Title: "Mock interviews", Focus: "run mock interviews and score them", DoneWhen: "two mock interviews are recorded and scored against a rubric", Pitfall: "only practicing questions you like", Action: ActionTest},
		{Title: "Applications sprint", Focus: "send tailored applications", DoneWhen: "10 tailored applications are sent and tracked", Pitfall: "sending one generic resume everywhere", Action: ActionCreate},
		{Title: "Follow-up and negotiation", Focus: "follow up and prepare negotiation numbers", DoneWhen: "every application has a follow-up and a target number is written down", Pitfall: "accepting the first number offered", Action: ActionReview},
	},
	GoalGeneral: {
		{Title: "Baseline and target", Focus: "write down what you can do today and one measurable target", DoneWhen: "a one-page note states the current level and a measurable target", Pitfall: "setting a target that cannot be checked", Action: ActionCreate},
		{Title: "Foundations", Focus: "work through the first foundational resource with notes", DoneWhen: "notes cover the first resource and 5 recall questions are answered", Pitfall: "collecting resources instead of finishing one", Action: ActionRead},
		{Title: "Deliberate practice", Focus: "practice the core skill on exercises with feedback", DoneWhen: "10 exercises are done with feedback logged for each", Pitfall: "repeating what is already easy", Action: ActionPractice},
		{Title: "Apply it", Focus: "use the skill on one real task", DoneWhen: "one real task is finished using the new skill", Pitfall: "staying in practice mode forever", Action: ActionCreate},
		{Title: "Check against target", Focus: "test yourself against the target from step one", DoneWhen: "a self-test against the target is scored and recorded", Pitfall: "grading yourself without evidence", Action: ActionTest},
	},
}

// CategorizeGoal classifies free text by keyword hits. Ties break in
// AllGoalTypes order; no hits yields GoalGeneral.
func CategorizeGoal(goal string) Category {
	words := tokenize(goal)
	best := GoalGeneral
	bestHits := 0
	var bestMatched []string
	for _, gt := range AllGoalTypes() {
		kws := categoryKeywords[gt]
		if len(kws) == 0 {
			continue
		}
		var matched []string
		for _, kw := range kws {
			if words[kw] {
				matched = append(matched, kw)
			}
		}
		if len(matched) > bestHits {
			best, bestHits, bestMatched = gt, len(matched), matched
		}
	}
	return Category{Type: best, Matched: bestMatched, Templates: TemplatesFor(best)}
}

// TemplatesFor returns a copy of the step templates of a goal type.
func TemplatesFor(gt GoalType) []StepTemplate {
	t, ok := categoryTemplates[gt]
	if !ok {
		t = categoryTemplates[GoalGeneral]
	}
	return append([]StepTemplate(nil), t...)
}

// TemplatesN returns exactly n templates, extending with numbered
// consolidation rounds when the category has fewer.
func TemplatesN(gt GoalType, n int) []StepTemplate {
	base := TemplatesFor(gt)
	if n <= len(base) {
		return base[:n]
	}
	out := base
	for i := len(base); i < n; i++ {
		round := i - len(base) + 1
		out = append(out, StepTemplate{
			Title:    fmt.Sprintf("Consolidation round %d", round),
			Focus:    "redo the hardest tasks from earlier steps without notes",
			DoneWhen: "every redone task is correct on the first attempt",
			Pitfall:  "choosing the tasks you already find easy",
			Action:   ActionReview,
		})
	}
	return out
}

// "go" is only the language next to one of these words.
var (
	goBefore = map[string]bool{"learn": true, "learning": true, "master": true, "write": true, "writing": true, "using": true, "in": true}
	goAfter  = map[string]bool{"programming": true, "code": true, "coding": true, "developer": true, "backend": true, "concurrency": true, "modules": true}
)

func tokenize(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := map[string]bool{}
	for i := 0; i < len(fields); i++ {
		w := fields[i]
		if w == "go" {
			next := ""
			if i+1 < len(fields) {
				next = fields[i+1]
			}
			switch {
			case next == "lang" || next == "language":
				w = "golang"
				i++
			case goAfter[next] || (i > 0 && goBefore[fields[i-1]]):
				w = "golang"
			}
		}
		words[w] = true
	}
	return words
}
