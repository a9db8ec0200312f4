// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package churn adapts an externally-trained churn model to the analytics
// pipeline.
//
// The model itself is a black box behind the Classifier interface; this
// package never reimplements model internals. It owns three things:
//
//   - the fixed column order handed to the model (the contract with the
//     feature-extraction stage)
//   - label normalization: differently-trained models emit either string
//     labels or integer class codes, and both appear in production
//   - the churn summary consumed by the dashboard's donut and bar charts
//
// A schema violation between the feature table and the model surfaces as
// ErrDataContract; it is a programming error, not a recoverable condition.
package churn

import (
	"context"
	"errors"
	"fmt"

	"github.com/aiotrix/streampulse/internal/models"
)

// ErrDataContract reports a contract violation between the feature table
// and the trained model: wrong column count, wrong order, or a class code
// outside the model's label set.
var ErrDataContract = errors.New("churn: feature data contract violation")

// FeatureCount is the number of numeric columns the model consumes, after
// identity columns are dropped.
const FeatureCount = 8

// Prediction is one model output. Models emit either a string label or an
// integer class code; Coded selects which field carries the prediction.
type Prediction struct {
	Label string
	Code  int
	Coded bool
}

// LabelPrediction wraps a string-label model output.
func LabelPrediction(label string) Prediction {
	return Prediction{Label: label}
}

// CodedPrediction wraps an integer-code model output.
func CodedPrediction(code int) Prediction {
	return Prediction{Code: code, Coded: true}
}

// Classifier is the capability a trained churn model exposes. One
// prediction per input row, in input order. Implementations must not
// retain rows.
type Classifier interface {
	Predict(ctx context.Context, rows [][]float64) ([]Prediction, error)
}

// codeToReason is the fixed translation for integer-code models.
var codeToReason = map[int]models.ChurnReason{
	0: models.ReasonBadRecommendation,
	1: models.ReasonGenreFatigue,
	2: models.ReasonLowEngagement,
	3: models.ReasonNoChurn,
	4: models.ReasonPoorUserExperience,
}

// Adapter converts feature vectors to churn verdicts through the wrapped
// classifier.
type Adapter struct {
	classifier Classifier
}

// NewAdapter wraps a classifier. The classifier is treated as immutable
// for the adapter's lifetime.
func NewAdapter(c Classifier) *Adapter {
	return &Adapter{classifier: c}
}

// featureRow flattens a feature vector into the model's column order.
// Identity columns (user ID, profile fields) are dropped here; the model
// sees numbers only. The order must match training exactly.
func featureRow(v models.UserFeatureVector) []float64 {
	return []float64{
		v.TotalWatchTime7d,
		float64(v.TotalSessions7d),
		v.AvgWatchTimePerSession7d,
		v.MedianPauses7d,
		v.MedianBufferEvents7d,
		v.RecommendationAcceptRate7d,
		float64(v.GenreDiversity7d),
		float64(v.DaysSinceLastSession),
	}
}

// Classify runs the model over the feature table and returns one verdict
// per input vector, in input order.
//
// String labels pass through verbatim, including labels outside the known
// reason set (a model trained on a different label vocabulary stays
// usable; unrecognized reasons simply get no recommendation policy).
// Integer codes are translated through the fixed code map; an unknown code
// is a contract violation and fails the whole batch.
func (a *Adapter) Classify(ctx context.Context, vectors []models.UserFeatureVector) ([]models.ChurnVerdict, error) {
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		rows[i] = featureRow(v)
	}

	predictions, err := a.classifier.Predict(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("classifier predict: %w", err)
	}
	if len(predictions) != len(vectors) {
		return nil, fmt.Errorf("%w: %d predictions for %d rows", ErrDataContract, len(predictions), len(vectors))
	}

	verdicts := make([]models.ChurnVerdict, len(vectors))
	for i, p := range predictions {
		reason := models.ChurnReason(p.Label)
		if p.Coded {
			var ok bool
			reason, ok = codeToReason[p.Code]
			if !ok {
				return nil, fmt.Errorf("%w: unknown class code %d at row %d", ErrDataContract, p.Code, i)
			}
		}
		verdicts[i] = models.ChurnVerdict{UserID: vectors[i].UserID, Reason: reason}
	}
	return verdicts, nil
}
