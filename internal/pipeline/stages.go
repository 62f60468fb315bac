package pipeline

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ParsedPrompt is the normalized form of the raw user prompt.
type ParsedPrompt struct {
	Raw       string   `json:"raw"`
	Normal    string   `json:"normal"`
	Words     []string `json:"words"`
	Sentences []string `json:"sentences"`
	WordCount int      `json:"wordCount"`
}

// Parser normalizes and tokenizes prompts.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

var whitespaceRe = regexp.MustCompile(`\s+`)
var sentenceSplitRe = regexp.MustCompile(`[.!?\n]+`)

// Parse rejects empty prompts and produces word and sentence tokens.
func (p *Parser) Parse(raw string) (ParsedPrompt, error) {
	normal := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
	if normal == "" {
		return ParsedPrompt{}, errors.New("prompt is empty")
	}

	words := strings.Fields(strings.ToLower(normal))
	var sentences []string
	for _, s := range sentenceSplitRe.Split(normal, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	return ParsedPrompt{
		Raw:       raw,
		Normal:    normal,
		Words:     words,
		Sentences: sentences,
		WordCount: len(words),
	}, nil
}

// Intent is the classified purpose and domain of a prompt.
type Intent struct {
	Action     string  `json:"action"`
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
}

// IntentClassifier maps prompt keywords to a coarse action and domain. This
// is keyword matching, not linguistics; unknown prompts classify as a
// generic create action with no domain.
type IntentClassifier struct {
	domains map[string][]string
}

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{
		domains: map[string][]string{
			"ecommerce":  {"shop", "store", "cart", "checkout", "product", "ecommerce", "marketplace"},
			"dashboard":  {"dashboard", "chart", "analytics", "metrics", "graph", "report"},
			"blog":       {"blog", "article", "post", "cms"},
			"landing":    {"landing", "hero", "waitlist", "signup page"},
			"social":     {"social", "feed", "follow", "profile", "comment"},
			"portfolio":  {"portfolio", "showcase", "resume"},
			"saas":       {"saas", "subscription", "billing", "tenant"},
			"booking":    {"booking", "reservation", "appointment", "calendar"},
			"education":  {"course", "quiz", "lesson", "learning"},
			"healthcare": {"clinic", "patient", "health"},
		},
	}
}

// Classify scores each domain by keyword hits and keeps the best match.
func (c *IntentClassifier) Classify(p ParsedPrompt) Intent {
	text := strings.ToLower(p.Normal)

	action := "create_app"
	switch {
	case containsAny(text, "fix", "repair", "debug"):
		action = "fix_code"
	case containsAny(text, "improve", "refactor", "redesign", "update"):
		action = "modify_app"
	}

	bestDomain := ""
	bestHits := 0
	for domain, keywords := range c.domains {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestDomain = domain
		}
	}

	confidence := 0.4
	if bestHits > 0 {
		confidence = 0.6 + 0.1*float64(bestHits)
		if confidence > 0.95 {
			confidence = 0.95
		}
	}

	return Intent{Action: action, Domain: bestDomain, Confidence: confidence}
}

// ValidationReport is the outcome of the validation stage.
type ValidationReport struct {
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Validator applies cheap sanity checks to the parsed prompt.
type Validator struct {
	maxWords int
}

func NewValidator() *Validator { return &Validator{maxWords: 2000} }

func (v *Validator) Validate(p ParsedPrompt) ValidationReport {
	if p.WordCount == 0 {
		return ValidationReport{Passed: false, Reason: "prompt is empty"}
	}
	if p.WordCount > v.maxWords {
		return ValidationReport{Passed: false, Reason: "prompt exceeds maximum length"}
	}
	return ValidationReport{Passed: true}
}

// ContextAnalysis captures style hints detected in the prompt.
type ContextAnalysis struct {
	Domain     string   `json:"domain,omitempty"`
	Style      string   `json:"style,omitempty"`
	DarkMode   bool     `json:"darkMode"`
	Responsive bool     `json:"responsive"`
	Palette    []string `json:"palette,omitempty"`
}

// ContextAnalyzer derives presentation context from prompt keywords.
type ContextAnalyzer struct{}

func NewContextAnalyzer() *ContextAnalyzer { return &ContextAnalyzer{} }

var hexColorRe = regexp.MustCompile(`#[0-9a-fA-F]{6}\b`)

func (a *ContextAnalyzer) Analyze(p ParsedPrompt, intent Intent) ContextAnalysis {
	text := strings.ToLower(p.Normal)

	style := ""
	switch {
	case containsAny(text, "minimal", "minimalist", "clean"):
		style = "minimal"
	case containsAny(text, "playful", "fun", "colorful"):
		style = "playful"
	case containsAny(text, "corporate", "professional", "enterprise"):
		style = "corporate"
	case containsAny(text, "elegant", "luxury", "premium"):
		style = "elegant"
	}

	return ContextAnalysis{
		Domain:     intent.Domain,
		Style:      style,
		DarkMode:   containsAny(text, "dark mode", "dark theme"),
		Responsive: containsAny(text, "responsive", "mobile"),
		Palette:    hexColorRe.FindAllString(p.Normal, -1),
	}
}

// AmbiguityReport flags prompts too vague to act on without a follow-up.
type AmbiguityReport struct {
	NeedsClarification bool     `json:"needsClarification"`
	VagueTerms         []string `json:"vagueTerms,omitempty"`
}

// AmbiguityResolver detects prompts built almost entirely from vague terms.
type AmbiguityResolver struct {
	vague map[string]bool
}

func NewAmbiguityResolver() *AmbiguityResolver {
	return &AmbiguityResolver{
		vague: map[string]bool{
			"something": true, "anything": true, "stuff": true, "thing": true,
			"nice": true, "cool": true, "good": true, "app": true, "website": true,
		},
	}
}

// Resolve asks for clarification when the prompt has no domain signal and
// more than half of its words are vague filler.
func (r *AmbiguityResolver) Resolve(p ParsedPrompt, intent Intent) AmbiguityReport {
	var vagueTerms []string
	for _, w := range p.Words {
		if r.vague[strings.Trim(w, ".,!?")] {
			vagueTerms = append(vagueTerms, w)
		}
	}

	needs := intent.Domain == "" && p.WordCount > 0 && len(vagueTerms)*2 > p.WordCount
	return AmbiguityReport{NeedsClarification: needs, VagueTerms: vagueTerms}
}

// Requirement is one extracted feature request.
type Requirement struct {
	Text       string  `json:"text"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

// RequirementExtractor splits the prompt into individual requirements.
type RequirementExtractor struct{}

func NewRequirementExtractor() *RequirementExtractor { return &RequirementExtractor{} }

var clauseSplitRe = regexp.MustCompile(`(?i)\s*(?:,|;| with | and | plus | including )\s*`)

// Extract produces one requirement per clause and an aggregate confidence
// that grows with clause count, capped below certainty.
func (e *RequirementExtractor) Extract(p ParsedPrompt, intent Intent) ([]Requirement, float64) {
	var reqs []Requirement
	for _, sentence := range p.Sentences {
		for _, clause := range clauseSplitRe.Split(sentence, -1) {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			kind := "functional"
			lower := strings.ToLower(clause)
			if containsAny(lower, "theme", "color", "style", "dark", "layout", "responsive", "design") {
				kind = "ui"
			}
			reqs = append(reqs, Requirement{Text: clause, Kind: kind, Confidence: 0.7})
		}
	}

	confidence := 0.5 + 0.1*float64(len(reqs))
	if intent.Domain != "" {
		confidence += 0.1
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	if len(reqs) == 0 {
		confidence = 0
	}
	return reqs, confidence
}

// ConversationTurn is one stored exchange for a session.
type ConversationTurn struct {
	Prompt string    `json:"prompt"`
	Intent Intent    `json:"intent"`
	At     time.Time `json:"at"`
}

// ConversationManager keeps a bounded per-session prompt history in memory.
type ConversationManager struct {
	mu       sync.Mutex
	sessions map[string][]ConversationTurn
}

func NewConversationManager() *ConversationManager {
	return &ConversationManager{sessions: make(map[string][]ConversationTurn)}
}

const maxTurnsPerSession = 50

func (m *ConversationManager) Append(sessionID, promptText string, intent Intent) {
	if sessionID == "" {
		sessionID = "default"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := append(m.sessions[sessionID], ConversationTurn{
		Prompt: promptText,
		Intent: intent,
		At:     time.Now(),
	})
	if len(turns) > maxTurnsPerSession {
		turns = turns[len(turns)-maxTurnsPerSession:]
	}
	m.sessions[sessionID] = turns
}

// History returns a copy of the stored turns for a session.
func (m *ConversationManager) History(sessionID string) []ConversationTurn {
	if sessionID == "" {
		sessionID = "default"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ConversationTurn, len(m.sessions[sessionID]))
	copy(out, m.sessions[sessionID])
	return out
}

// HistoryEntry is one processed-prompt record kept for diagnostics.
type HistoryEntry struct {
	Prompt     string    `json:"prompt"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}

// HistoryRecorder keeps a bounded in-memory log of processed prompts.
type HistoryRecorder struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

func NewHistoryRecorder() *HistoryRecorder { return &HistoryRecorder{} }

const maxHistoryEntries = 500

func (h *HistoryRecorder) Record(promptText string, intent Intent, confidence float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, HistoryEntry{
		Prompt:     promptText,
		Intent:     intent,
		Confidence: confidence,
		At:         time.Now(),
	})
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[len(h.entries)-maxHistoryEntries:]
	}
}

// Entries returns a copy of the recorded history.
func (h *HistoryRecorder) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
