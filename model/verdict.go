package model

type ResultType string

const (
	ResultPureBreed  ResultType = "pure_breed"
	ResultMixedBreed ResultType = "mixed_breed"
	ResultUncertain  ResultType = "uncertain"
)

// Reason codes attached to a verdict.
const (
	ReasonLowConfidence     = "low_confidence"
	ReasonCloseMargin       = "close_margin"
	ReasonSpreadPredictions = "spread_predictions"
	ReasonHighEntropy       = "high_entropy"
	ReasonBlurry            = "blurry"
)

// RankedBreed is a ranked label. Emotion and age results use the same shape.
type RankedBreed struct {
	Rank        int                    `json:"rank"`
	ClassIndex  int                    `json:"class_index"`
	ClassName   string                 `json:"class_name"`
	DisplayName string                 `json:"display_name"`
	BreedID     interface{}            `json:"breed_id,omitempty"`
	Confidence  float64                `json:"confidence"` // Percent, 2 decimals
	MixShare    float64                `json:"mix_share"`  // Percent within the top-K, 1 decimal
	Details     map[string]interface{} `json:"db_info,omitempty"`
}

type VerdictMetrics struct {
	P1      float64 `json:"p1"`
	P2      float64 `json:"p2"`
	Margin  float64 `json:"margin"`
	TopKSum float64 `json:"topk_sum"`
}

type Verdict struct {
	ResultType  ResultType     `json:"result_type"`
	Entropy     float64        `json:"entropy"`
	Reasons     []string       `json:"reasons"`
	TopBreeds   []RankedBreed  `json:"top_breeds"`
	Metrics     VerdictMetrics `json:"metrics"`
	IsMixed     bool           `json:"is_mixed"`
	IsUncertain bool           `json:"is_uncertain"`
	Blurry      bool           `json:"blurry"`
}

// HasReason reports whether code was one of the triggered rules.
func (v Verdict) HasReason(code string) bool {
	for _, r := range v.Reasons {
		if r == code {
			return true
		}
	}
	return false
}

type DiseaseFinding struct {
	Rank        int     `json:"rank"`
	ClassIndex  int     `json:"class_index"`
	ClassName   string  `json:"class_name"`
	DisplayName string  `json:"display_name"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
	Treatment   string  `json:"treatment"`
	Severity    string  `json:"severity"`
}

type BreedReport struct {
	Verdict
	Emotion *RankedBreed `json:"emotion,omitempty"`
	Age     *RankedBreed `json:"age,omitempty"`
}

type DiseaseReport struct {
	TopDiseases []DiseaseFinding `json:"top_diseases"`
}
