package catalog

import "testing"

func TestCatalogOrderAndFamilies(t *testing.T) {
	all := All()
	if len(all) != 12 {
		t.Fatalf("expected 12 benchmarks, got %d", len(all))
	}
	if all[0].ID != "aime24" || all[len(all)-1].ID != "ifeval-th" {
		t.Fatalf("unexpected ordering: first=%s last=%s", all[0].ID, all[len(all)-1].ID)
	}
	families := map[string]Family{
		"code_switching":     FamilyLanguageMixing,
		"ifeval":             FamilyInstructionFollowing,
		"ifeval-th":          FamilyInstructionFollowing,
		"live_code_bench":    FamilyCodeExecution,
		"live_code_bench-th": FamilyCodeExecution,
		"math_500-th":        FamilyDefault,
	}
	for id, want := range families {
		b, ok := Lookup(id)
		if !ok {
			t.Fatalf("missing catalog entry: %s", id)
		}
		if b.Family != want {
			t.Fatalf("%s: family %v, want %v", id, b.Family, want)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0].Label = "mutated"
	if b, _ := Lookup("aime24"); b.Label == "mutated" {
		t.Fatal("All must not expose internal state")
	}
}

func TestSelectPreservesOrderAndUnknowns(t *testing.T) {
	got := Select([]string{"math_500-th", "custom_bench", "aime24"})
	if len(got) != 3 {
		t.Fatalf("len: %d", len(got))
	}
	if got[0].ID != "math_500-th" || got[2].ID != "aime24" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if got[1].Label != "custom_bench" || got[1].Family != FamilyDefault {
		t.Fatalf("unknown id must become a default-family entry: %+v", got[1])
	}
}
