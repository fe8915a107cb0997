package ferret

import "math"

// RetrievalModel names one of the four scoring functions spec.md §4.5
// defines. The zero value is RawCounts.
type RetrievalModel int

const (
	RawCounts RetrievalModel = iota
	BM25
	JelinekMercer
	Dirichlet
)

// RetrievalParams carries every tunable constant the four models need,
// with the defaults spec.md §4.5 fixes as this system's contract - not
// the teacher's own BM25 defaults (k1=1.5), which were a generic
// full-text-search tuning.
type RetrievalParams struct {
	K1     float64
	K2     float64
	B      float64
	AlphaD float64
	Mu     float64
}

// DefaultRetrievalParams returns k1=1.2, k2=100, b=0.75, alphaD=0.1, mu=1500.
func DefaultRetrievalParams() RetrievalParams {
	return RetrievalParams{K1: 1.2, K2: 100, B: 0.75, AlphaD: 0.1, Mu: 1500}
}

// ScoreInput bundles the quantities every model formula reads (spec.md
// §4.5's notation: f_i, qf_i, n_i, N, dl, avdl, c_qi, cl).
type ScoreInput struct {
	Fi   int     // dtf - term frequency in this document
	QFi  int     // query term count
	Ni   int     // df - document frequency of the term
	N    int     // total docs in the collection
	DL   int     // this document's length
	AvDL float64 // average document length
	CQi  int     // ctf - collection term frequency
	CL   int     // total collection length
}

// Score dispatches to the scoring function named by model.
func Score(model RetrievalModel, in ScoreInput, p RetrievalParams) float64 {
	switch model {
	case BM25:
		return scoreBM25(in, p)
	case JelinekMercer:
		return scoreJelinekMercer(in, p)
	case Dirichlet:
		return scoreDirichlet(in, p)
	default:
		return scoreRawCounts(in)
	}
}

// scoreRawCounts: f_i * qf_i.
func scoreRawCounts(in ScoreInput) float64 {
	return float64(in.Fi * in.QFi)
}

// scoreBM25 implements spec.md §4.5's bm25 formula with R=r_i=0:
//
//	K = k1*((1-b) + b*(dl/avdl))
//	score = log((N-n_i+0.5)/(n_i+0.5)) * ((k1+1)*f_i/(K+f_i)) * ((k2+1)*qf_i/(k2+qf_i))
//
// When f_i=0 the fi-dependent factor is 0, so the whole score is 0
// regardless of idf (spec.md §4.5, §8).
func scoreBM25(in ScoreInput, p RetrievalParams) float64 {
	if in.Fi == 0 {
		return 0
	}
	K := p.K1 * ((1 - p.B) + p.B*(float64(in.DL)/in.AvDL))
	idf := math.Log((float64(in.N) - float64(in.Ni) + 0.5) / (float64(in.Ni) + 0.5))
	tf := (p.K1 + 1) * float64(in.Fi) / (K + float64(in.Fi))
	qtf := (p.K2 + 1) * float64(in.QFi) / (p.K2 + float64(in.QFi))
	return idf * tf * qtf
}

// scoreJelinekMercer implements spec.md §4.5's jelinek_mercer formula:
//
//	qf_i * log((1-alphaD)*(f_i/dl) + alphaD*(c_qi/cl))
func scoreJelinekMercer(in ScoreInput, p RetrievalParams) float64 {
	term := (1-p.AlphaD)*(float64(in.Fi)/float64(in.DL)) + p.AlphaD*(float64(in.CQi)/float64(in.CL))
	return float64(in.QFi) * math.Log(term)
}

// scoreDirichlet implements spec.md §4.5's dirichlet formula:
//
//	qf_i * log((f_i + mu*(c_qi/cl)) / (dl + mu))
//
// With f_i=0 this reduces to qf_i * log(mu*c_qi / (cl*(dl+mu))) (spec.md §8).
func scoreDirichlet(in ScoreInput, p RetrievalParams) float64 {
	numerator := float64(in.Fi) + p.Mu*(float64(in.CQi)/float64(in.CL))
	denominator := float64(in.DL) + p.Mu
	return float64(in.QFi) * math.Log(numerator/denominator)
}
