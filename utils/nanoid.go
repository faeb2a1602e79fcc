package utils

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IdAlphabet leaves out characters that are easy to confuse (0/O, 1/l/I, u/v).
const IdAlphabet = "23456789abcdefghijkmnpqrstwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

const IdSize = 6

// NewId returns a random IdSize character id over IdAlphabet.
func NewId() (string, error) {
	id, err := gonanoid.Generate(IdAlphabet, IdSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id, nil
}
