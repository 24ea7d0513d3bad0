package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// The built-in think functions are deterministic rule-based loops. They
// exist so the stock agents work without any external reasoning service;
// a caller can always supply its own ThinkFunc instead.

// DiagnosticThink inspects the host with system-info. Section keywords in
// the task narrow the report.
func DiagnosticThink(ctx context.Context, task, taskContext string, caller *Caller) (string, error) {
	var include []string
	for _, section := range []string{"memory", "cpu", "disk", "host", "runtime"} {
		if containsWord(task, section) {
			include = append(include, section)
		}
	}

	inputs := json.RawMessage(`{}`)
	if len(include) > 0 {
		raw, err := json.Marshal(map[string]any{"include": include})
		if err != nil {
			return "", err
		}
		inputs = raw
	}

	resp, err := caller.Invoke(ctx, "system-info", inputs, "diagnose: "+task)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("System diagnostics\n\n")
	writeJSONBlock(&b, resp.Result)
	return b.String(), nil
}

// FileAnalysisThink lists the sandbox root and reads every path-like token
// found in the task.
func FileAnalysisThink(ctx context.Context, task, taskContext string, caller *Caller) (string, error) {
	var b strings.Builder
	b.WriteString("File analysis\n\n")

	listResp, err := caller.Invoke(ctx, "file-list", json.RawMessage(`{"path":"."}`), "analyze: "+task)
	if err != nil {
		return "", err
	}
	b.WriteString("Directory listing:\n")
	writeJSONBlock(&b, listResp.Result)

	for _, path := range extractPaths(task) {
		inputs, err := json.Marshal(map[string]string{"path": path})
		if err != nil {
			return "", err
		}
		readResp, err := caller.Invoke(ctx, "file-read", inputs, "analyze: "+task)
		if err != nil {
			// A missing or out-of-bounds file is a finding, not a failure.
			fmt.Fprintf(&b, "\n%s: unreadable (%v)\n", path, err)
			continue
		}
		fmt.Fprintf(&b, "\nContents of %s:\n", path)
		writeJSONBlock(&b, readResp.Result)
	}
	return b.String(), nil
}

// ChangeProposalThink drafts a file change and submits it through the
// dangerous file-write tool, which the gateway forces into dry-run.
func ChangeProposalThink(ctx context.Context, task, taskContext string, caller *Caller) (string, error) {
	target := "CHANGES.md"
	if paths := extractPaths(task); len(paths) > 0 {
		target = paths[0]
	}

	// taskContext arrives already labeled by the router; embed it as is.
	var content strings.Builder
	content.WriteString("Proposed change: " + task + "\n")
	if taskContext != "" {
		content.WriteString("\n" + taskContext + "\n")
	}

	inputs, err := json.Marshal(map[string]string{
		"path":    target,
		"content": content.String(),
	})
	if err != nil {
		return "", err
	}

	resp, err := caller.Invoke(ctx, "file-write", inputs, "propose: "+task)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Change proposal\n\n")
	fmt.Fprintf(&b, "Simulated: %s\n", resp.SimulatedAction)
	writeJSONBlock(&b, resp.Result)
	return b.String(), nil
}

func writeJSONBlock(b *strings.Builder, v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(b, "(unrenderable result: %v)\n", err)
		return
	}
	b.Write(raw)
	b.WriteString("\n")
}

// containsWord matches whole lowercase words so "disk" does not match
// "diskless" tasks by accident.
func containsWord(text, word string) bool {
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), isWordBoundary) {
		if tok == word {
			return true
		}
	}
	return false
}

func isWordBoundary(r rune) bool {
	return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
}

// extractPaths pulls path-like tokens out of free text: anything with a
// slash or a file extension, trimmed of surrounding punctuation.
func extractPaths(text string) []string {
	var paths []string
	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, `"'().,:;!?`)
		if tok == "" || tok == "." || tok == ".." {
			continue
		}
		if strings.Contains(tok, "/") || looksLikeFilename(tok) {
			paths = append(paths, tok)
		}
	}
	return paths
}

func looksLikeFilename(tok string) bool {
	dot := strings.LastIndexByte(tok, '.')
	if dot <= 0 || dot == len(tok)-1 {
		return false
	}
	ext := tok[dot+1:]
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return len(ext) <= 5
}
