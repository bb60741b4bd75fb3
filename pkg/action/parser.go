// Package action turns model output into authorized, audited side effects.
package action

import (
	"encoding/json"
	"strings"

	"github.com/agentgate-org/agentgate/pkg/types"
)

// Action blocks are fenced inside the model reply:
//
//	<<<action
//	{"action": "create_project", "params": {"name": "Apollo"}}
//	>>>
//
// The system prompt instructs the model to emit this shape; the parser is the
// tolerant counterpart. Anything malformed is stripped and dropped, never an
// error: this is a best-effort boundary, not a compiler front end.
const (
	blockOpen  = "<<<action"
	blockClose = ">>>"
)

// Proposal is one well-formed action directive extracted from a reply.
type Proposal struct {
	ActionID string       `json:"action"`
	Params   types.Params `json:"params"`
	Reason   string       `json:"reason,omitempty"`
}

// Parse scans raw model output for action blocks. It returns the text with
// every delimited block removed for human display, plus the proposals that
// validated. An unterminated open fence is left in the text untouched.
func Parse(raw string) (string, []Proposal) {
	lines := strings.Split(raw, "\n")

	var display []string
	var proposals []Proposal

	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != blockOpen {
			display = append(display, lines[i])
			continue
		}

		// Find the closing fence.
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == blockClose {
				end = j
				break
			}
		}
		if end == -1 {
			// No close fence: keep the tail verbatim.
			display = append(display, lines[i:]...)
			break
		}

		body := strings.TrimSpace(strings.Join(lines[i+1:end], "\n"))
		if p, ok := parseBlock(body); ok {
			proposals = append(proposals, p)
		}
		i = end
	}

	return tidy(display), proposals
}

func parseBlock(body string) (Proposal, bool) {
	if body == "" {
		return Proposal{}, false
	}

	var block struct {
		Action string          `json:"action"`
		Params json.RawMessage `json:"params"`
		Reason string          `json:"reason"`
	}
	if err := json.Unmarshal([]byte(body), &block); err != nil {
		return Proposal{}, false
	}
	if strings.TrimSpace(block.Action) == "" {
		return Proposal{}, false
	}
	if len(block.Params) == 0 {
		return Proposal{}, false
	}

	// params must be a JSON object.
	var params types.Params
	if err := json.Unmarshal(block.Params, &params); err != nil {
		return Proposal{}, false
	}
	if params == nil {
		return Proposal{}, false
	}

	return Proposal{
		ActionID: strings.TrimSpace(block.Action),
		Params:   params,
		Reason:   block.Reason,
	}, true
}

// tidy collapses the blank runs left where blocks were cut out.
func tidy(lines []string) string {
	var out []string
	blank := false
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
