package chat

import (
	"github.com/campusbot/campusbot/internal/knowledge"
)

// Role and campus declarations are matched against closed enumerations, not
// free-text inference: a detection must map onto one of these values or it
// does not count. This keeps resolution deterministic and guarantees a
// resolved field is never clobbered by a fuzzy guess.
var roleAliases = map[string]string{
	"student":       "student",
	"undergraduate": "student",
	"bachelor":      "student",
	"master":        "student",
	"employee":      "employee",
	"staff":         "employee",
	"professor":     "professor",
	"prof":          "professor",
	"lecturer":      "lecturer",
	"instructor":    "lecturer",
	"teacher":       "lecturer",
	"phd":           "phd",
	"doctoral":      "phd",
	"doctorate":     "phd",
	"postdoc":       "postdoc",
	"postdoctoral":  "postdoc",
	"visitor":       "visitor",
	"guest":         "visitor",
	"visiting":      "visitor",
}

var campusAliases = map[string]string{
	"munich":         "Munich",
	"münchen":        "Munich",
	"garching":       "Garching",
	"heilbronn":      "Heilbronn",
	"bildungscampus": "Heilbronn",
	"weihenstephan":  "Weihenstephan",
	"freising":       "Weihenstephan",
}

// DetectRole reports the canonical role declared in the message, if any.
func DetectRole(message string) (string, bool) {
	for _, tok := range knowledge.Tokenize(message) {
		if role, ok := roleAliases[tok]; ok {
			return role, true
		}
	}
	return "", false
}

// DetectCampus reports the canonical campus declared in the message, if any.
func DetectCampus(message string) (string, bool) {
	for _, tok := range knowledge.Tokenize(message) {
		if campus, ok := campusAliases[tok]; ok {
			return campus, true
		}
	}
	return "", false
}

// Short greetings, acknowledgements and personal remarks never warrant a
// context prompt; asking "which campus?" in reply to "thanks" reads broken.
var smallTalkWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "greetings": {},
	"thanks": {}, "thank": {}, "bye": {}, "goodbye": {},
	"yes": {}, "no": {}, "ok": {}, "okay": {}, "sure": {}, "fine": {},
	"good": {}, "great": {}, "awesome": {}, "cool": {},
	"morning": {}, "afternoon": {}, "evening": {}, "night": {},
	"sad": {}, "happy": {}, "tired": {}, "stressed": {}, "bored": {},
}

func isSmallTalk(message string) bool {
	tokens := knowledge.Tokenize(message)
	if len(tokens) == 0 || len(tokens) > 4 {
		return false
	}
	for _, tok := range tokens {
		if _, ok := smallTalkWords[tok]; ok {
			return true
		}
	}
	return false
}
