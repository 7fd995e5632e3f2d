// Package jsonout writes the selection result artifact as JSON.
package jsonout

import (
	"os"

	"github.com/goccy/go-json"

	"github.com/assaykit/panelopt/pkg/errors"
	"github.com/assaykit/panelopt/pkg/models"
)

// WriteSelection writes the selection result to path as indented JSON.
func WriteSelection(path string, result *models.SelectionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal selection result")
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write selection result")
	}
	return nil
}
