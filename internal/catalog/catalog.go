package catalog

// Family groups benchmarks that share a score-extraction rule.
type Family int

const (
	// FamilyDefault benchmarks report a mean-accuracy style metric.
	FamilyDefault Family = iota
	// FamilyLanguageMixing benchmarks report a language-accuracy metric
	// (e.g. code switching between Thai and English).
	FamilyLanguageMixing
	// FamilyInstructionFollowing benchmarks report instruction-level
	// loose-accuracy metrics (IFEval and its Thai variant).
	FamilyInstructionFollowing
	// FamilyCodeExecution benchmarks report exact-match or pass-rate metrics.
	FamilyCodeExecution
)

// Benchmark is one entry of the static evaluation catalog.
type Benchmark struct {
	// ID is the dataset identifier passed to the evaluation tool and used
	// as the work directory name.
	ID string
	// Label is the display name used in score summaries.
	Label string
	// Family selects the metric extraction rule.
	Family Family
	// SampleLimit overrides the global sample cap when > 0.
	SampleLimit int
}

// benchmarks is the fixed Thai/English suite in summary display order.
var benchmarks = []Benchmark{
	{ID: "aime24", Label: "AIME24", Family: FamilyDefault},
	{ID: "aime24-th", Label: "AIME24-TH", Family: FamilyDefault},
	{ID: "code_switching", Label: "Language Accuracy (Code Switching)", Family: FamilyLanguageMixing},
	{ID: "live_code_bench", Label: "LiveCodeBench", Family: FamilyCodeExecution},
	{ID: "live_code_bench-th", Label: "LiveCodeBench-TH", Family: FamilyCodeExecution},
	{ID: "math_500", Label: "MATH500", Family: FamilyDefault},
	{ID: "math_500-th", Label: "MATH500-TH", Family: FamilyDefault},
	{ID: "openthaieval", Label: "OpenThaiEval", Family: FamilyDefault},
	{ID: "hellaswag", Label: "HellaSwag", Family: FamilyDefault},
	{ID: "hellaswag-th", Label: "HellaSwag-TH", Family: FamilyDefault},
	{ID: "ifeval", Label: "IFEval (inst_level_loose_acc)", Family: FamilyInstructionFollowing},
	{ID: "ifeval-th", Label: "IFEval-TH (inst_level_loose_acc)", Family: FamilyInstructionFollowing},
}

// All returns the full catalog in display order. Callers get a copy.
func All() []Benchmark {
	out := make([]Benchmark, len(benchmarks))
	copy(out, benchmarks)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Benchmark, bool) {
	for _, b := range benchmarks {
		if b.ID == id {
			return b, true
		}
	}
	return Benchmark{}, false
}

// Select resolves a list of ids against the catalog, preserving input order.
// Unknown ids are returned as plain default-family benchmarks so ad hoc
// datasets can still be scheduled and extracted with the fallback rule.
func Select(ids []string) []Benchmark {
	out := make([]Benchmark, 0, len(ids))
	for _, id := range ids {
		if b, ok := Lookup(id); ok {
			out = append(out, b)
			continue
		}
		out = append(out, Benchmark{ID: id, Label: id, Family: FamilyDefault})
	}
	return out
}
