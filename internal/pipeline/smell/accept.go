package smell

import (
	"encoding/json"

	"smellfix/internal/util/jsonutil"
)

// AcceptReply reports whether raw is a usable reply for the step named
// phase. Detection replies must yield an issue list; refactor replies must
// carry refactored_code. Replies for other phases are accepted.
func AcceptReply(phase string, raw json.RawMessage) bool {
	switch phase {
	case "detect":
		_, err := jsonutil.ExtractStringList(string(raw), "issues")
		return err == nil
	case "refactor":
		_, ok := jsonutil.ParseOrFallback(string(raw), "refactored_code", "")
		return ok
	default:
		return true
	}
}
