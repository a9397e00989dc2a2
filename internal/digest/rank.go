package digest

import "sort"

// Pipeline filters and ranks file inventories.
type Pipeline struct {
	classifier *Classifier
	scorer     *Scorer
}

// NewPipeline builds a Pipeline whose Classifier and Scorer share rules.
func NewPipeline(rules Rules) *Pipeline {
	return &Pipeline{
		classifier: NewClassifier(rules),
		scorer:     NewScorer(rules),
	}
}

// FilterAndRank drops excluded files and stable-sorts the rest by descending
// score. Equal scores keep their input order.
func (p *Pipeline) FilterAndRank(files []File) []ScoredFile {
	ranked := make([]ScoredFile, 0, len(files))
	for _, f := range files {
		if p.classifier.ShouldExclude(f.Path, f.Size) {
			continue
		}
		ranked = append(ranked, ScoredFile{File: f, Score: p.scorer.Score(f.Path, f.Size)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// FilterAndRank runs a Pipeline built from DefaultRules.
func FilterAndRank(files []File) []ScoredFile {
	return NewPipeline(DefaultRules()).FilterAndRank(files)
}

// TopN returns the files of the first n ranked entries.
func TopN(ranked []ScoredFile, n int) []File {
	if n < 0 || n > len(ranked) {
		n = len(ranked)
	}
	out := make([]File, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].File
	}
	return out
}
