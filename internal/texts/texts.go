// Package texts manages reference passages and their intake.
package texts

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sbsidd17/type-scribe-zen/internal/model"
)

// Normalize collapses all whitespace runs to single spaces so the
// passage splits cleanly into words.
func Normalize(body string) string {
	return strings.Join(strings.Fields(body), " ")
}

// FromBody builds a passage from raw text, normalizing whitespace and
// deriving word and character counts.
func FromBody(title, body string) (model.Text, error) {
	normalized := Normalize(body)
	if normalized == "" {
		return model.Text{}, fmt.Errorf("passage body is empty")
	}
	if strings.TrimSpace(title) == "" {
		return model.Text{}, fmt.Errorf("passage title is empty")
	}
	return model.Text{
		Title:     strings.TrimSpace(title),
		Body:      normalized,
		WordCount: len(strings.Split(normalized, " ")),
		CharCount: utf8.RuneCountInString(normalized),
		CreatedAt: time.Now(),
	}, nil
}

// ImportFile loads a passage from a file, using the base name without
// extension as the title.
func ImportFile(path string) (model.Text, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Text{}, fmt.Errorf("failed to read passage: %w", err)
	}
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	text, err := FromBody(title, string(data))
	if err != nil {
		return model.Text{}, fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
