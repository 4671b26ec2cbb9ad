package runtime

import "testing"

func TestLookupLibc(t *testing.T) {
	p, ok := Lookup("malloc")
	if !ok {
		t.Fatal("expected malloc to be found")
	}
	if len(p.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(p.Params))
	}
}

func TestLookupSupport(t *testing.T) {
	p, ok := Lookup("quark_json_parse")
	if !ok {
		t.Fatal("expected quark_json_parse to be found")
	}
	if p.Ret == nil {
		t.Fatal("expected a return type")
	}
}

func TestLookupMissing(t *testing.T) {
	if _, ok := Lookup("not_a_real_function"); ok {
		t.Fatal("expected lookup to fail")
	}
}

func TestFreestandingBlocklistExcludesCoreBuiltins(t *testing.T) {
	if FreestandingBlocklist["print"] {
		t.Fatal("print must remain available under --freestanding")
	}
	if !FreestandingBlocklist["sqrt"] {
		t.Fatal("sqrt depends on libm and must be blocked under --freestanding")
	}
}
