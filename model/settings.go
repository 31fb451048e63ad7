package model

// UncertaintyThresholds trigger the mixed / uncertain rules of the breed verdict.
type UncertaintyThresholds struct {
	MaxProb float64 `json:"maxProb" yaml:"maxProb"` // p1 below this -> mixed
	Margin  float64 `json:"margin" yaml:"margin"`   // p1-p2 below this -> mixed
	Top3Sum float64 `json:"top3Sum" yaml:"top3Sum"` // top-K sum below this -> uncertain
	Entropy float64 `json:"entropy" yaml:"entropy"` // entropy above this -> mixed
}

type MixSettings struct {
	MinSecondaryProb   float64 `json:"minSecondaryProb" yaml:"minSecondaryProb"`
	MaxBreedsToShow    int     `json:"maxBreedsToShow" yaml:"maxBreedsToShow"`
	ConfidentThreshold float64 `json:"confidentThreshold" yaml:"confidentThreshold"`
}

// InferenceSettings is the single immutable configuration object for
// augmentation, batching and the uncertainty heuristics.
type InferenceSettings struct {
	Rotations            []float64             `json:"rotations" yaml:"rotations"` // Degrees, counter-clockwise
	Mirror               bool                  `json:"mirror" yaml:"mirror"`
	BatchSize            int                   `json:"batchSize" yaml:"batchSize"`
	MaxConcurrentBatches int                   `json:"maxConcurrentBatches" yaml:"maxConcurrentBatches"`
	TopK                 int                   `json:"topK" yaml:"topK"`
	Thresholds           UncertaintyThresholds `json:"thresholds" yaml:"thresholds"`
	Mix                  MixSettings           `json:"mix" yaml:"mix"`
	Temperature          float64               `json:"temperature" yaml:"temperature"`     // 0 or 1 disables scaling
	BlurThreshold        float64               `json:"blurThreshold" yaml:"blurThreshold"` // 0 disables blur detection
}

func DefaultInferenceSettings() InferenceSettings {
	return InferenceSettings{
		Rotations:            []float64{-15, -7, 0, 7, 15},
		Mirror:               true,
		BatchSize:            8,
		MaxConcurrentBatches: 1,
		TopK:                 3,
		Thresholds: UncertaintyThresholds{
			MaxProb: 0.55,
			Margin:  0.18,
			Top3Sum: 0.60,
			Entropy: 0.8,
		},
		Mix: MixSettings{
			MinSecondaryProb:   0.10,
			MaxBreedsToShow:    4,
			ConfidentThreshold: 0.75,
		},
		Temperature:   1.0,
		BlurThreshold: 100.0,
	}
}

// VariantCount is the number of augmented views generated per image.
func (s InferenceSettings) VariantCount() int {
	if s.Mirror {
		return 2 * len(s.Rotations)
	}
	return len(s.Rotations)
}
