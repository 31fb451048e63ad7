package pipeline

import (
	"math"
	"sort"

	"github.com/khaledhikmat/dogscan-go/catalog"
	"github.com/khaledhikmat/dogscan-go/model"
)

const (
	minProb      = 1e-12
	breedIDField = "breed_id"
)

// ClassifyBreed turns one probability vector into a pure / mixed / uncertain
// verdict with a ranked breed composition.
//
// Every rule is evaluated independently. A confident top-1 (p1 at or above
// the confident threshold) yields pure_breed even when a mixed rule fired;
// otherwise any mixed rule yields mixed_breed, else uncertain.
func ClassifyBreed(probs []float64, cat *catalog.Catalog, settings model.InferenceSettings) model.Verdict {
	p := ApplyTemperature(probs, settings.Temperature)

	k := settings.TopK
	if k <= 0 {
		k = 3
	}
	top := TopIndices(p, k)

	var p1, p2, topSum float64
	if len(top) > 0 {
		p1 = p[top[0]]
	}
	if len(top) > 1 {
		p2 = p[top[1]]
	}
	for _, idx := range top {
		topSum += p[idx]
	}
	margin := p1 - p2
	entropy := Entropy(p)

	v := model.Verdict{
		Entropy:   round(entropy, 4),
		Reasons:   []string{},
		TopBreeds: []model.RankedBreed{},
		Metrics: model.VerdictMetrics{
			P1:      p1,
			P2:      p2,
			Margin:  margin,
			TopKSum: topSum,
		},
	}

	th := settings.Thresholds
	if p1 < th.MaxProb {
		v.IsMixed = true
		v.Reasons = append(v.Reasons, model.ReasonLowConfidence)
	}
	if margin < th.Margin {
		v.IsMixed = true
		v.Reasons = append(v.Reasons, model.ReasonCloseMargin)
	}
	if topSum < th.Top3Sum {
		v.IsUncertain = true
		v.Reasons = append(v.Reasons, model.ReasonSpreadPredictions)
	}
	if entropy > th.Entropy {
		v.IsMixed = true
		v.Reasons = append(v.Reasons, model.ReasonHighEntropy)
	}

	isPure := p1 >= settings.Mix.ConfidentThreshold
	switch {
	case isPure:
		v.ResultType = model.ResultPureBreed
	case v.IsMixed:
		v.ResultType = model.ResultMixedBreed
	default:
		v.ResultType = model.ResultUncertain
	}

	for i, idx := range top {
		raw := p[idx]
		if v.IsMixed && raw < settings.Mix.MinSecondaryProb {
			continue
		}

		entry, ok := cat.EntryAt(idx)
		if !ok {
			continue
		}

		if settings.Mix.MaxBreedsToShow > 0 && len(v.TopBreeds) >= settings.Mix.MaxBreedsToShow {
			break
		}

		share := 0.0
		if topSum > 0 {
			share = raw / topSum * 100.0
		}

		ranked := model.RankedBreed{
			Rank:        i + 1,
			ClassIndex:  idx,
			ClassName:   entry.ClassName,
			DisplayName: entry.DisplayName,
			Confidence:  round(raw*100, 2),
			MixShare:    round(share, 1),
		}
		if breedID, ok := entry.Value(breedIDField); ok && breedID != nil {
			ranked.BreedID = breedID
			ranked.Details = entry.Fields()
		}
		v.TopBreeds = append(v.TopBreeds, ranked)
	}

	return v
}

// MarkBlurry flags a verdict whose source photo failed the sharpness check.
func MarkBlurry(v *model.Verdict) {
	v.Blurry = true
	v.IsUncertain = true
	v.Reasons = append(v.Reasons, model.ReasonBlurry)
}

// ClassifySingle returns the top-1 label of probs. Label fields are empty
// when the catalog has no entry for the winning index.
func ClassifySingle(probs []float64, cat *catalog.Catalog) model.RankedBreed {
	if len(probs) == 0 {
		return model.RankedBreed{}
	}

	idx := 0
	for i, x := range probs {
		if x > probs[idx] {
			idx = i
		}
	}

	r := model.RankedBreed{
		Rank:       1,
		ClassIndex: idx,
		Confidence: round(probs[idx]*100, 2),
	}
	if entry, ok := cat.EntryAt(idx); ok {
		r.ClassName = entry.ClassName
		r.DisplayName = entry.DisplayName
	}
	return r
}

// RankTop returns the k most likely labels with their description,
// treatment and severity. Indices missing from the catalog are omitted.
func RankTop(probs []float64, cat *catalog.Catalog, k int) []model.DiseaseFinding {
	findings := []model.DiseaseFinding{}
	for i, idx := range TopIndices(probs, k) {
		entry, ok := cat.EntryAt(idx)
		if !ok {
			continue
		}

		display := entry.DisplayName
		if display == "" {
			display = entry.ClassName
		}

		findings = append(findings, model.DiseaseFinding{
			Rank:        i + 1,
			ClassIndex:  idx,
			ClassName:   entry.ClassName,
			DisplayName: display,
			Confidence:  round(probs[idx]*100, 2),
			Description: entry.String("description"),
			Treatment:   entry.String("treatment"),
			Severity:    entry.String("severity"),
		})
	}
	return findings
}

// TopIndices returns the indices of the k largest values, largest first.
// Ties keep index order.
func TopIndices(p []float64, k int) []int {
	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p[idx[a]] > p[idx[b]]
	})

	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

// Entropy is the Shannon entropy (nats) of p with every value clamped to
// [1e-12, 1].
func Entropy(p []float64) float64 {
	h := 0.0
	for _, x := range p {
		x = clamp(x)
		h -= x * math.Log(x)
	}
	return h
}

// ApplyTemperature sharpens (t < 1) or flattens (t > 1) a distribution:
// p^(1/t), renormalized. t <= 0 or t == 1 returns p unchanged.
func ApplyTemperature(p []float64, t float64) []float64 {
	if t <= 0 || t == 1 {
		return p
	}

	scaled := make([]float64, len(p))
	sum := 0.0
	for i, x := range p {
		scaled[i] = math.Pow(clamp(x), 1.0/t)
		sum += scaled[i]
	}
	if sum == 0 {
		return scaled
	}
	for i := range scaled {
		scaled[i] /= sum
	}
	return scaled
}

func clamp(x float64) float64 {
	if x < minProb {
		return minProb
	}
	if x > 1 {
		return 1
	}
	return x
}

func round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
