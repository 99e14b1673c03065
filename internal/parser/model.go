// Package parser provides utilities for parsing and transforming input data.
// It turns ONNX files and JSON model payloads into models.ParsedModel values.
package parser

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/onnxscope/core/internal/models"
)

// ParseModel decodes a JSON payload shaped like the /parse-onnx response.
func ParseModel(data []byte) (*models.ParsedModel, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty model data")
	}

	var model models.ParsedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}

	if model.Nodes == nil {
		return nil, fmt.Errorf("invalid model: missing nodes field")
	}

	if err := ValidateWeights(model.Weights); err != nil {
		return nil, err
	}

	normalize(&model)

	return &model, nil
}

// ValidateWeights checks the shape/value invariant of every weight. Names are
// visited in sorted order so the reported error is stable.
func ValidateWeights(weights map[string]models.WeightTensor) error {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := weights[name].Validate(); err != nil {
			return fmt.Errorf("invalid model: weight %q: %w", name, err)
		}
	}

	return nil
}

func normalize(model *models.ParsedModel) {
	if model.Edges == nil {
		model.Edges = []models.GraphEdge{}
	}
	if model.Weights == nil {
		model.Weights = map[string]models.WeightTensor{}
	}
	if model.Metadata == nil {
		model.Metadata = map[string]any{}
	}
}
