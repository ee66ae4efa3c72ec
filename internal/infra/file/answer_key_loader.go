package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mathemania-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnswerKeyLoader reads an answer key from a YAML file. The file is read on
// every load so edits are picked up when the cache expires.
type AnswerKeyLoader struct {
	path string
}

func NewAnswerKeyLoader(path string) *AnswerKeyLoader {
	return &AnswerKeyLoader{path: path}
}

func (l *AnswerKeyLoader) LoadAnswerKey(_ context.Context, keyID string) (domain.AnswerKey, error) {
	key, err := ReadAnswerKey(l.path)
	if err != nil {
		return domain.AnswerKey{}, err
	}
	if key.ID != keyID {
		return domain.AnswerKey{}, fmt.Errorf("%w: %s holds %q", domain.ErrAnswerKeyNotFound, l.path, key.ID)
	}
	return key, nil
}

// ReadAnswerKey decodes a YAML answer key.
func ReadAnswerKey(path string) (domain.AnswerKey, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.AnswerKey{}, fmt.Errorf("%w: %s", domain.ErrAnswerKeyNotFound, path)
	}
	if err != nil {
		return domain.AnswerKey{}, err
	}
	var key domain.AnswerKey
	if err := yaml.Unmarshal(data, &key); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("%w: %v", domain.ErrInvalidAnswerKey, err)
	}
	return key, nil
}
