package models

import (
	"encoding/json"
	"strings"
)

// MasterAnalysis is the structured extraction derived once per project.
type MasterAnalysis struct {
	Topics        []string `json:"topics"`
	KeyQuotes     []string `json:"keyQuotes"`
	CoreArguments []string `json:"coreArguments"`
	NarrativeArc  string   `json:"narrativeArc"`
	Takeaways     []string `json:"takeaways"`
}

// EmptyAnalysis returns the zero shape with non-nil lists, so it encodes as [] rather than null.
func EmptyAnalysis() MasterAnalysis {
	return MasterAnalysis{
		Topics:        []string{},
		KeyQuotes:     []string{},
		CoreArguments: []string{},
		Takeaways:     []string{},
	}
}

// ParseAnalysis decodes a stored analysis. Blank or malformed input yields [EmptyAnalysis].
func ParseAnalysis(raw string) MasterAnalysis {
	a := EmptyAnalysis()
	if strings.TrimSpace(raw) == "" {
		return a
	}
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return EmptyAnalysis()
	}
	a.fill()
	return a
}

// Encode serializes the analysis for storage.
func (a MasterAnalysis) Encode() (string, error) {
	a.fill()
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a *MasterAnalysis) fill() {
	if a.Topics == nil {
		a.Topics = []string{}
	}
	if a.KeyQuotes == nil {
		a.KeyQuotes = []string{}
	}
	if a.CoreArguments == nil {
		a.CoreArguments = []string{}
	}
	if a.Takeaways == nil {
		a.Takeaways = []string{}
	}
}
