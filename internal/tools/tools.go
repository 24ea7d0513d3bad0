// Package tools provides the built-in tool set: host inspection and
// sandboxed file access. All tools register against a tool.Registry and
// never touch the filesystem outside the sandbox they are given.
package tools

import (
	"fmt"

	"github.com/flemzord/gatehouse/internal/security"
	"github.com/flemzord/gatehouse/internal/tool"
)

// Options tunes the built-in tools.
type Options struct {
	// MaxReadBytes caps file-read payloads. Zero means 1 MiB.
	MaxReadBytes int64

	// MaxWriteBytes caps file-write payloads. Zero means 1 MiB.
	MaxWriteBytes int64
}

const defaultMaxBytes = 1 << 20

func (o Options) readLimit() int64 {
	if o.MaxReadBytes > 0 {
		return o.MaxReadBytes
	}
	return defaultMaxBytes
}

func (o Options) writeLimit() int64 {
	if o.MaxWriteBytes > 0 {
		return o.MaxWriteBytes
	}
	return defaultMaxBytes
}

// Register adds the built-in tools to the registry. File tools are bound
// to the given sandbox.
func Register(reg *tool.Registry, sb *security.Sandbox, opts Options) error {
	for _, entry := range []struct {
		def  tool.Definition
		exec tool.Executor
	}{
		{systemInfoDefinition(), systemInfoExecutor()},
		{fileReadDefinition(), fileReadExecutor(sb, opts.readLimit())},
		{fileListDefinition(), fileListExecutor(sb)},
		{fileWriteDefinition(), fileWriteExecutor(sb, opts.writeLimit())},
	} {
		if err := reg.Register(entry.def, entry.exec); err != nil {
			return fmt.Errorf("register %s: %w", entry.def.Name, err)
		}
	}
	return nil
}
