package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/flemzord/gatehouse/internal/security"
	"github.com/flemzord/gatehouse/internal/tool"
)

// ErrDryRunViolation means a dangerous executor was asked to run for real.
// The gateway never does this; hitting it indicates a caller bypassed the
// gateway entirely.
var ErrDryRunViolation = errors.New("dangerous tool invoked without dry-run")

// ErrWriteTooLarge means the content exceeds the write budget.
var ErrWriteTooLarge = errors.New("content exceeds write budget")

const fileWriteSchema = `{
	"type": "object",
	"properties": {
		"path": {"type": "string", "minLength": 1},
		"content": {"type": "string"},
		"mode": {"type": "string", "pattern": "^0[0-7]{3}$"}
	},
	"required": ["path", "content"],
	"additionalProperties": false
}`

func fileWriteDefinition() tool.Definition {
	return tool.Definition{
		Name:        "file-write",
		Description: "Simulates writing a file inside the sandbox. Always dry-run.",
		Intent:      "propose a sandboxed file write",
		InputSchema: json.RawMessage(fileWriteSchema),
		Safety:      tool.SafetyDangerous,
	}
}

type fileWriteInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Mode    string `json:"mode"`
}

type fileWritePlan struct {
	Path      string `json:"path"`
	SizeBytes int    `json:"sizeBytes"`
	Mode      string `json:"mode"`
	Exists    bool   `json:"exists"`
	WouldBe   string `json:"wouldBe"`
	ParentOK  bool   `json:"parentOk"`
}

func fileWriteExecutor(sb *security.Sandbox, maxBytes int64) tool.Executor {
	return func(_ context.Context, args json.RawMessage, ec tool.ExecContext) (tool.Result, error) {
		if !ec.DryRun {
			return tool.Result{}, ErrDryRunViolation
		}

		var in fileWriteInput
		if err := json.Unmarshal(args, &in); err != nil {
			return tool.Result{}, err
		}
		if in.Mode == "" {
			in.Mode = "0644"
		}

		// Preconditions are checked exactly as a real write would, so a
		// later real run could not fail for a reason the simulation missed.
		resolved, err := sb.Resolve(in.Path)
		if err != nil {
			return tool.Result{}, err
		}
		if int64(len(in.Content)) > maxBytes {
			return tool.Result{}, fmt.Errorf("%w: %d > %d bytes", ErrWriteTooLarge, len(in.Content), maxBytes)
		}

		plan := fileWritePlan{
			Path:      in.Path,
			SizeBytes: len(in.Content),
			Mode:      in.Mode,
			WouldBe:   "created",
		}
		if info, err := os.Stat(resolved); err == nil {
			if info.IsDir() {
				return tool.Result{}, fmt.Errorf("%s is a directory", in.Path)
			}
			plan.Exists = true
			plan.WouldBe = "overwritten"
		} else if !errors.Is(err, fs.ErrNotExist) {
			return tool.Result{}, err
		}
		if info, err := os.Stat(filepath.Dir(resolved)); err == nil && info.IsDir() {
			plan.ParentOK = true
		}

		return tool.Result{
			Success:         true,
			Data:            plan,
			SimulatedAction: fmt.Sprintf("would write %d bytes to %s (mode %s)", len(in.Content), in.Path, in.Mode),
		}, nil
	}
}
