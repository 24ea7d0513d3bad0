package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Validation limits.
const (
	DefaultMaxInputSize = 1 << 20 // 1 MiB
	DefaultMaxJSONDepth = 32
)

// Validation errors.
var (
	ErrInputTooLarge = errors.New("input exceeds maximum size")
	ErrJSONTooDeep   = errors.New("JSON nesting exceeds maximum depth")
	ErrInvalidJSON   = errors.New("invalid JSON")
)

// ValidateInputSize checks that data does not exceed limit bytes.
// A limit <= 0 means DefaultMaxInputSize.
func ValidateInputSize(data []byte, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if len(data) > limit {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), limit)
	}
	return nil
}

// ValidateJSONDepth checks that the JSON in data does not nest deeper than
// limit levels, protecting against JSON bombs. A limit <= 0 means
// DefaultMaxJSONDepth.
func ValidateJSONDepth(data []byte, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxJSONDepth
	}
	if len(data) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}

		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
			if depth > limit {
				return fmt.Errorf("%w: depth %d (max %d)", ErrJSONTooDeep, depth, limit)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
}
