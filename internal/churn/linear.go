// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package churn

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// LinearModel is a one-vs-rest linear scorer exported from the training
// pipeline as a JSON artifact. It is loaded once at process start and
// immutable afterwards.
//
// The artifact carries its own label convention so the adapter can be
// exercised against both model styles seen in production:
//
//	{
//	  "convention": "label",
//	  "feature_count": 8,
//	  "labels": ["bad_recommendation", "genre_fatigue", ...],
//	  "weights": [[...8 floats...], ...],
//	  "intercepts": [...]
//	}
//
// With "convention": "code" the "codes" field replaces "labels" and
// predictions come back as integer class codes.
type LinearModel struct {
	Convention string      `json:"convention"`
	FeatureDim int         `json:"feature_count"`
	Labels     []string    `json:"labels,omitempty"`
	Codes      []int       `json:"codes,omitempty"`
	Weights    [][]float64 `json:"weights"`
	Intercepts []float64   `json:"intercepts"`
}

// LoadModel reads and validates a model artifact. A missing file is
// surfaced untranslated so callers can errors.Is against fs.ErrNotExist;
// model presence is a startup precondition, not a retryable condition.
func LoadModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}

	m := &LinearModel{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing model artifact %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return m, nil
}

func (m *LinearModel) validate() error {
	classes := len(m.Labels)
	switch m.Convention {
	case "label":
		if classes == 0 {
			return fmt.Errorf("label convention requires labels")
		}
	case "code":
		classes = len(m.Codes)
		if classes == 0 {
			return fmt.Errorf("code convention requires codes")
		}
	default:
		return fmt.Errorf("unknown label convention %q", m.Convention)
	}
	if m.FeatureDim <= 0 {
		return fmt.Errorf("feature_count must be positive")
	}
	if len(m.Weights) != classes {
		return fmt.Errorf("%d weight rows for %d classes", len(m.Weights), classes)
	}
	if len(m.Intercepts) != classes {
		return fmt.Errorf("%d intercepts for %d classes", len(m.Intercepts), classes)
	}
	for i, w := range m.Weights {
		if len(w) != m.FeatureDim {
			return fmt.Errorf("weight row %d has %d columns, want %d", i, len(w), m.FeatureDim)
		}
	}
	return nil
}

// Predict scores each row against every class and returns the argmax
// class, in input order. A row with the wrong column count is a data
// contract violation.
func (m *LinearModel) Predict(ctx context.Context, rows [][]float64) ([]Prediction, error) {
	predictions := make([]Prediction, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) != m.FeatureDim {
			return nil, fmt.Errorf("%w: row %d has %d columns, model expects %d", ErrDataContract, i, len(row), m.FeatureDim)
		}

		best := 0
		bestScore := m.score(0, row)
		for class := 1; class < len(m.Weights); class++ {
			if s := m.score(class, row); s > bestScore {
				best, bestScore = class, s
			}
		}

		if m.Convention == "code" {
			predictions[i] = CodedPrediction(m.Codes[best])
		} else {
			predictions[i] = LabelPrediction(m.Labels[best])
		}
	}
	return predictions, nil
}

func (m *LinearModel) score(class int, row []float64) float64 {
	s := m.Intercepts[class]
	for j, x := range row {
		s += m.Weights[class][j] * x
	}
	return s
}
