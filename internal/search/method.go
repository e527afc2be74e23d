package search

import (
	"fmt"
	"strings"
)

// Method selects the scoring function. Closed set; anything else is rejected
// at the boundary instead of branching on strings deep in the engine.
type Method int

const (
	MethodHybrid Method = iota
	MethodSemantic
	MethodKeyword
)

func (m Method) String() string {
	switch m {
	case MethodSemantic:
		return "semantic"
	case MethodKeyword:
		return "keyword"
	default:
		return "hybrid"
	}
}

func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hybrid":
		return MethodHybrid, nil
	case "semantic":
		return MethodSemantic, nil
	case "keyword":
		return MethodKeyword, nil
	default:
		return MethodHybrid, fmt.Errorf("unknown search method: %s", s)
	}
}
