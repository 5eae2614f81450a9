package ml

import (
	"encoding/json"
	"fmt"
)

// classifier constructors by Kind, used when decoding persisted pipelines.
var classifierRegistry = map[string]func() Classifier{
	"logistic_regression": func() Classifier { return &LogisticRegression{} },
	"decision_tree":       func() Classifier { return &DecisionTree{} },
	"random_forest":       func() Classifier { return &RandomForest{} },
	"gradient_boosting":   func() Classifier { return &GradientBoosting{} },
	"svm":                 func() Classifier { return &RBFClassifier{} },
}

type pipelineEnvelope struct {
	ModelType string          `json:"model_type"`
	Imputer   *MedianImputer  `json:"imputer"`
	Scaler    *StandardScaler `json:"scaler,omitempty"`
	Model     json.RawMessage `json:"model"`
}

// MarshalJSON persists the pipeline with a model type tag so it can be
// reconstructed without knowing the concrete classifier up front.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	modelData, err := json.Marshal(p.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s model: %w", p.Model.Kind(), err)
	}
	return json.Marshal(pipelineEnvelope{
		ModelType: p.Model.Kind(),
		Imputer:   p.Imputer,
		Scaler:    p.Scaler,
		Model:     modelData,
	})
}

// UnmarshalJSON reverses MarshalJSON using the classifier registry.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	var env pipelineEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	build, ok := classifierRegistry[env.ModelType]
	if !ok {
		return fmt.Errorf("unknown model type %q", env.ModelType)
	}
	model := build()
	if err := json.Unmarshal(env.Model, model); err != nil {
		return fmt.Errorf("failed to decode %s model: %w", env.ModelType, err)
	}

	p.Imputer = env.Imputer
	p.Scaler = env.Scaler
	p.Model = model
	if p.Imputer == nil {
		p.Imputer = &MedianImputer{}
	}
	return nil
}
