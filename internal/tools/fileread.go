package tools

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/flemzord/gatehouse/internal/security"
	"github.com/flemzord/gatehouse/internal/tool"
)

const fileReadSchema = `{
	"type": "object",
	"properties": {
		"path": {"type": "string", "minLength": 1},
		"maxBytes": {"type": "integer", "minimum": 1}
	},
	"required": ["path"],
	"additionalProperties": false
}`

func fileReadDefinition() tool.Definition {
	return tool.Definition{
		Name:        "file-read",
		Description: "Reads a file inside the sandbox, up to a byte budget.",
		Intent:      "read sandboxed file contents",
		InputSchema: json.RawMessage(fileReadSchema),
		Safety:      tool.SafetySafe,
	}
}

type fileReadOutput struct {
	Path      string `json:"path"`
	SizeBytes int    `json:"sizeBytes"`
	Content   string `json:"content"`
	Binary    bool   `json:"binary,omitempty"`
}

func fileReadExecutor(sb *security.Sandbox, maxBytes int64) tool.Executor {
	return func(_ context.Context, args json.RawMessage, _ tool.ExecContext) (tool.Result, error) {
		var in struct {
			Path     string `json:"path"`
			MaxBytes int64  `json:"maxBytes"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return tool.Result{}, err
		}

		limit := maxBytes
		if in.MaxBytes > 0 && in.MaxBytes < limit {
			limit = in.MaxBytes
		}

		data, err := sb.ReadFile(in.Path, limit)
		if err != nil {
			return tool.Result{}, err
		}

		out := fileReadOutput{
			Path:      in.Path,
			SizeBytes: len(data),
			Content:   string(data),
		}
		if !utf8.Valid(data) {
			out.Binary = true
			out.Content = ""
		}
		return tool.Result{Success: true, Data: out}, nil
	}
}
