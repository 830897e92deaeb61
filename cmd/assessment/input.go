package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

// readSubmission reads a submission from a YAML or JSON file, or stdin for "-"
func readSubmission(path string) (models.SubmitRequest, error) {
	var req models.SubmitRequest

	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("failed to read input: %w", err)
	}

	if err := decodeInput(data, &req); err != nil {
		return req, err
	}
	return req, nil
}

// decodeInput parses YAML (a superset of JSON) and maps it onto the JSON field names
func decodeInput(data []byte, v any) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to convert input: %w", err)
	}
	if err := json.Unmarshal(encoded, v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}
