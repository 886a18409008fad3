package branch

import "testing"

func TestByIDExact(t *testing.T) {
	b := ByID("kinathukadavu")
	if b.BranchCode != "KIN" {
		t.Fatalf("expected KIN, got %s", b.BranchCode)
	}
	if ByID("KINATHUKADAVU").BranchCode != "KIN" {
		t.Fatalf("lookup should be case insensitive")
	}
}

func TestByIDPartial(t *testing.T) {
	if b := ByID("coimb"); b.BranchCode != "CBE" {
		t.Fatalf("partial id match failed: %+v", b)
	}
	if b := ByID("RS Puram"); b.BranchCode != "CBE" {
		t.Fatalf("name match failed: %+v", b)
	}
}

func TestByIDFallsBackToDefault(t *testing.T) {
	b := ByID("no-such-branch")
	if b.ID != Default().ID {
		t.Fatalf("expected default branch, got %s", b.ID)
	}
	if ByID("").ID != Default().ID {
		t.Fatalf("empty id should resolve to default")
	}
}

func TestRegistryShape(t *testing.T) {
	all := All()
	if len(all) < 3 {
		t.Fatalf("expected at least 3 branches, got %d", len(all))
	}
	seen := map[string]bool{}
	for _, b := range all {
		if len(b.BranchCode) != 3 {
			t.Fatalf("branch code must be 3 letters: %q", b.BranchCode)
		}
		if seen[b.BranchCode] {
			t.Fatalf("duplicate branch code %s", b.BranchCode)
		}
		seen[b.BranchCode] = true
		if b.GSTNumber == "" || b.Phone == "" {
			t.Fatalf("branch %s missing contact fields", b.ID)
		}
	}
}

func TestByCode(t *testing.T) {
	if b, ok := ByCode("pol"); !ok || b.ID != "pollachi" {
		t.Fatalf("ByCode pol: %v %v", b, ok)
	}
	if _, ok := ByCode("XXX"); ok {
		t.Fatalf("unknown code should not resolve")
	}
}
