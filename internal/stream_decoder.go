package internal

import (
	"regexp"
	"strings"
)

// stepLinePattern matches the start of a step record: "step:" followed by
// whitespace and a single non-whitespace identifier.
var stepLinePattern = regexp.MustCompile(`step:\s*(\S+)`)

const contentPrefix = "Content:"

// DecodeChunk scans one delivery of stream text for step records. Each record
// is a "step: <identifier>" line immediately followed by a "Content: <text>"
// line. A step line with no content line yields nothing; lines that are
// neither prefix are skipped as record starts.
//
// Each call operates independently on the text that arrived in that delivery.
// A record split across two deliveries is not recovered; the per-chunk step
// count feeds the accumulator's append guard, so carrying partial lines over
// would change which chunks get appended.
func DecodeChunk(chunk string) []StreamStep {
	lines := strings.Split(chunk, "\n")
	var steps []StreamStep

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "step:") {
			continue
		}

		match := stepLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		if i+1 >= len(lines) {
			break
		}
		contentLine := strings.TrimSpace(lines[i+1])
		if !strings.HasPrefix(contentLine, contentPrefix) {
			continue
		}

		steps = append(steps, StreamStep{
			Step:       match[1],
			Content:    strings.TrimSpace(contentLine[len(contentPrefix):]),
			RawContent: line + "\n" + contentLine,
		})
		i++
	}

	return steps
}

// hiddenSteps are pipeline stages whose content is internal plumbing and
// should not be rendered mid-stream.
var hiddenSteps = map[string]bool{
	"semantic_guardrail": true,
	"llm_guardrail":      true,
	"assembler":          true,
}

// ShouldShowContent reports whether a step's content is meant for display.
func ShouldShowContent(stepName string) bool {
	return !hiddenSteps[stepName]
}
