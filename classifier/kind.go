package classifier

import (
	"fmt"
	"strings"
)

// Kind names a Classifier implementation.
type Kind string

const (
	KindBrute    Kind = "brute"
	KindParallel Kind = "parallel"
	KindCompact  Kind = "compact"
)

// Kinds lists all known implementations, reference first.
func Kinds() []Kind { return []Kind{KindBrute, KindParallel, KindCompact} }

// ParseKind resolves a case-insensitive implementation name. An empty name
// selects the brute-force reference.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "brute", "bruteforce":
		return KindBrute, nil
	case "parallel":
		return KindParallel, nil
	case "compact", "f32", "float32":
		return KindCompact, nil
	default:
		return "", fmt.Errorf("classifier: unknown kind %q", name)
	}
}
