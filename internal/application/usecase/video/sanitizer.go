package video

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sanitize_rules.yaml
var defaultSanitizeRules []byte

type SanitizeRule struct {
	Name     string `yaml:"name"`
	Pattern  string `yaml:"pattern"`
	Replace  string `yaml:"replace"`
	Repeat   bool   `yaml:"repeat"`
	MaxChars int    `yaml:"max_chars"`
}

type compiledRule struct {
	SanitizeRule
	re *regexp.Regexp
}

// Sanitizer simplifies a prompt after a safety rejection by applying an ordered rule list.
type Sanitizer struct {
	rules []compiledRule
}

func NewSanitizer() (*Sanitizer, error) {
	return LoadSanitizer(defaultSanitizeRules)
}

func LoadSanitizer(data []byte) (*Sanitizer, error) {
	var doc struct {
		Rules []SanitizeRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sanitize rules: %w", err)
	}
	s := &Sanitizer{}
	for _, r := range doc.Rules {
		cr := compiledRule{SanitizeRule: r}
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
			}
			cr.re = re
		} else if r.MaxChars <= 0 {
			return nil, fmt.Errorf("rule %q has neither pattern nor max_chars", r.Name)
		}
		s.rules = append(s.rules, cr)
	}
	return s, nil
}

func (s *Sanitizer) RuleNames() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Sanitize returns a prompt strictly shorter than the input.
func (s *Sanitizer) Sanitize(prompt string) string {
	out := prompt
	for _, r := range s.rules {
		out = r.apply(out)
	}
	out = strings.TrimSpace(out)
	if len([]rune(out)) >= len([]rune(prompt)) {
		out = truncateWords(prompt, len([]rune(prompt))*4/5)
	}
	return out
}

// ApplyRule runs a single named rule, for inspection and tests.
func (s *Sanitizer) ApplyRule(name, text string) (string, bool) {
	for _, r := range s.rules {
		if r.Name == name {
			return r.apply(text), true
		}
	}
	return text, false
}

func (r compiledRule) apply(text string) string {
	if r.re == nil {
		return truncateWords(text, r.MaxChars)
	}
	for {
		next := r.re.ReplaceAllString(text, r.Replace)
		if !r.Repeat || next == text {
			return next
		}
		text = next
	}
}

func truncateWords(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:")
}
