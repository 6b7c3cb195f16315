// Package shortcode generates random alphanumeric short codes.
package shortcode

import (
	"context"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the 62-character set short codes are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength is used when the generator is built with a non-positive length.
	DefaultLength = 6
)

// ErrInvalidLength is returned when a code of non-positive length is requested.
var ErrInvalidLength = errors.New("invalid short code length")

// Generator produces short codes of a fixed length.
type Generator struct {
	length int
}

// New creates a generator for codes of the given length.
func New(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Length returns the length of generated codes.
func (g *Generator) Length() int {
	return g.length
}

// Generate draws codes until exists reports one as free. There is no retry
// cap: the loop only ends early when ctx is done.
func (g *Generator) Generate(ctx context.Context, exists func(string) bool) (string, error) {
	const op = "shortcode.Generator.Generate"

	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		code, err := Random(g.length)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		if exists == nil || !exists(code) {
			return code, nil
		}
	}
}

// Random returns a single code of length n drawn uniformly from Alphabet.
func Random(n int) (string, error) {
	const op = "shortcode.Random"

	if n <= 0 {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	code, err := gonanoid.Generate(Alphabet, n)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}
