// Package triage scores intake text for urgency with a fixed keyword count.
// It is deterministic string matching, not a model call.
package triage

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Level maps a minimum number of keyword matches to a risk label.
type Level struct {
	Name       string `yaml:"name"`
	MinMatches int    `yaml:"min_matches"`
}

// Rules is the threshold table. Levels are checked highest MinMatches first;
// text matching none of them gets Default.
type Rules struct {
	Keywords []string `yaml:"keywords"`
	Levels   []Level  `yaml:"levels"`
	Default  string   `yaml:"default"`
}

// DefaultRules returns the built-in table: eight keywords, High at three
// matches, Medium at two, otherwise Low.
func DefaultRules() Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded triage rules: %v", err))
	}
	return r
}

// LoadRules reads a rules file. An empty path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read triage rules: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse triage rules: %w", err)
	}
	if err := r.validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func (r Rules) validate() error {
	if len(r.Keywords) == 0 {
		return errors.New("triage rules: no keywords")
	}
	if r.Default == "" {
		return errors.New("triage rules: no default level")
	}
	for _, l := range r.Levels {
		if l.Name == "" || l.MinMatches < 1 {
			return fmt.Errorf("triage rules: bad level %+v", l)
		}
	}
	return nil
}

// Assessment is the classifier's verdict on one piece of text.
type Assessment struct {
	Risk    string
	Matches []string
}

type Classifier struct {
	keywords []string
	levels   []Level
	fallback string
}

func NewClassifier(r Rules) *Classifier {
	levels := slices.Clone(r.Levels)
	slices.SortStableFunc(levels, func(a, b Level) int { return b.MinMatches - a.MinMatches })

	keywords := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" && !slices.Contains(keywords, k) {
			keywords = append(keywords, k)
		}
	}
	return &Classifier{keywords: keywords, levels: levels, fallback: r.Default}
}

// Classify lower-cases text and counts how many distinct keywords appear in
// it as substrings ("courthouse" counts for "court"). Repeats of one keyword
// count once.
func (c *Classifier) Classify(text string) Assessment {
	lower := strings.ToLower(text)

	var matches []string
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			matches = append(matches, k)
		}
	}

	for _, l := range c.levels {
		if len(matches) >= l.MinMatches {
			return Assessment{Risk: l.Name, Matches: matches}
		}
	}
	return Assessment{Risk: c.fallback, Matches: matches}
}
