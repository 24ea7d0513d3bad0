package tools

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"github.com/flemzord/gatehouse/internal/security"
	"github.com/flemzord/gatehouse/internal/tool"
)

const fileListSchema = `{
	"type": "object",
	"properties": {
		"path": {"type": "string"}
	},
	"additionalProperties": false
}`

func fileListDefinition() tool.Definition {
	return tool.Definition{
		Name:        "file-list",
		Description: "Lists directory entries inside the sandbox.",
		Intent:      "enumerate sandboxed files",
		InputSchema: json.RawMessage(fileListSchema),
		Safety:      tool.SafetySafe,
	}
}

type fileListEntry struct {
	Name      string `json:"name"`
	Dir       bool   `json:"dir"`
	SizeBytes int64  `json:"sizeBytes"`
}

type fileListOutput struct {
	Path    string          `json:"path"`
	Entries []fileListEntry `json:"entries"`
}

func fileListExecutor(sb *security.Sandbox) tool.Executor {
	return func(_ context.Context, args json.RawMessage, _ tool.ExecContext) (tool.Result, error) {
		var in struct {
			Path string `json:"path"`
		}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return tool.Result{}, err
			}
		}
		if in.Path == "" {
			in.Path = "."
		}

		resolved, err := sb.Resolve(in.Path)
		if err != nil {
			return tool.Result{}, err
		}
		dirents, err := os.ReadDir(resolved)
		if err != nil {
			return tool.Result{}, err
		}

		out := fileListOutput{Path: in.Path, Entries: make([]fileListEntry, 0, len(dirents))}
		for _, d := range dirents {
			entry := fileListEntry{Name: d.Name(), Dir: d.IsDir()}
			if info, err := d.Info(); err == nil && !d.IsDir() {
				entry.SizeBytes = info.Size()
			}
			out.Entries = append(out.Entries, entry)
		}
		sort.Slice(out.Entries, func(i, j int) bool {
			return out.Entries[i].Name < out.Entries[j].Name
		})
		return tool.Result{Success: true, Data: out}, nil
	}
}
