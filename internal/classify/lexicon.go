package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keyword set names. They double as classification types.
const (
	HelpSeeking    = "help_seeking"
	ErrorReporting = "error_reporting"
	Innovation     = "innovation"
	Stress         = "stress"
	Conflict       = "conflict"
	Direction      = "direction"
	Supportive     = "supportive"
	Coaching       = "coaching"
)

// KeywordSet is a named list of lowercase phrases matched as substrings.
type KeywordSet struct {
	Name  string
	Words []string
}

// Hits returns the words of the set found in text, case-insensitively.
func (k KeywordSet) Hits(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, w := range k.Words {
		if strings.Contains(lower, w) {
			hits = append(hits, w)
		}
	}
	return hits
}

// Match reports whether any word of the set appears in text.
func (k KeywordSet) Match(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range k.Words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Lexicon holds every keyword table the metrics engine consults.
type Lexicon struct {
	HelpSeeking    KeywordSet
	ErrorReporting KeywordSet
	Innovation     KeywordSet
	Stress         KeywordSet
	Conflict       KeywordSet
	Direction      KeywordSet
	Supportive     KeywordSet
	Coaching       KeywordSet
}

// DefaultLexicon returns the built-in English keyword tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		HelpSeeking:    KeywordSet{HelpSeeking, []string{"help", "assist", "support", "guidance", "advice"}},
		ErrorReporting: KeywordSet{ErrorReporting, []string{"mistake", "error", "failed", "issue", "problem"}},
		Innovation:     KeywordSet{Innovation, []string{"idea", "suggestion", "improve", "better", "new approach"}},
		Stress:         KeywordSet{Stress, []string{"urgent", "deadline", "pressure", "stress", "overwhelmed", "tired"}},
		Conflict:       KeywordSet{Conflict, []string{"disagree", "conflict", "argument", "frustrated", "angry"}},
		Direction:      KeywordSet{Direction, []string{"goal", "objective", "target", "mission", "vision"}},
		Supportive:     KeywordSet{Supportive, []string{"thanks", "great", "awesome", "good job", "appreciate"}},
		Coaching:       KeywordSet{Coaching, []string{"feedback", "coach", "mentor", "guide", "support"}},
	}
}

// Sets returns the tables in a fixed order.
func (l *Lexicon) Sets() []*KeywordSet {
	return []*KeywordSet{
		&l.HelpSeeking, &l.ErrorReporting, &l.Innovation, &l.Stress,
		&l.Conflict, &l.Direction, &l.Supportive, &l.Coaching,
	}
}

// LoadLexicon reads a YAML file mapping set names to word lists and applies
// it over the defaults. Sets missing from the file keep their default words.
//
//	stress: [urgent, asap, deadline]
//	supportive: [thanks, kudos]
func LoadLexicon(path string) (Lexicon, error) {
	lex := DefaultLexicon()

	data, err := os.ReadFile(path)
	if err != nil {
		return lex, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return lex, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	known := make(map[string]*KeywordSet)
	for _, set := range lex.Sets() {
		known[set.Name] = set
	}

	for name, words := range overrides {
		set, ok := known[name]
		if !ok {
			return lex, fmt.Errorf("unknown keyword set %q in %s", name, path)
		}
		normalized := make([]string, 0, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				normalized = append(normalized, w)
			}
		}
		if len(normalized) == 0 {
			return lex, fmt.Errorf("keyword set %q in %s is empty", name, path)
		}
		set.Words = normalized
	}

	return lex, nil
}
