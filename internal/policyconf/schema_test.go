package policyconf

import "testing"

func TestDecodeStrictRejectsUnknownTopLevelField(t *testing.T) {
	_, err := decodeStrict([]byte("saftey_level: high\n"))
	if err == nil {
		t.Fatal("expected error for misspelled top-level field, got nil")
	}
}

func TestDecodeStrictRejectsUnknownMatchKey(t *testing.T) {
	data := []byte(`
rules:
  - id: example
    level: high
    decision: ask
    reason: test
    match:
      command:
        name: rm
        flagz: ["-r"]
`)
	_, err := decodeStrict(data)
	if err == nil {
		t.Fatal("expected error for unknown key \"flagz\" inside command match, got nil")
	}
}

func TestDecodeStrictRejectsUnknownPredicateKey(t *testing.T) {
	data := []byte(`
rules:
  - id: example
    level: high
    decision: ask
    reason: test
    match:
      command:
        name:
          contains: rm
`)
	_, err := decodeStrict(data)
	if err == nil {
		t.Fatal("expected error for unknown predicate key \"contains\", got nil")
	}
}

func TestDecodeStrictRejectsMultipleMatchVariants(t *testing.T) {
	data := []byte(`
rules:
  - id: example
    level: high
    decision: ask
    reason: test
    match:
      command:
        name: rm
      redirect:
        op: ">"
`)
	doc, err := decodeStrict(data)
	if err != nil {
		t.Fatalf("decodeStrict: %v", err)
	}
	_, err = convertDoc(doc, SourceBuiltin)
	if err == nil {
		t.Fatal("expected error for match with two populated variants, got nil")
	}
}

func TestDecodeStrictRejectsUnknownAllowlistEntryKey(t *testing.T) {
	data := []byte(`
allowlists:
  commands:
    - { command: "ls", trusst: standard }
`)
	_, err := decodeStrict(data)
	if err == nil {
		t.Fatal("expected error for misspelled allowlist entry field, got nil")
	}
}

func TestDecodeStrictAcceptsBareAllowlistScalar(t *testing.T) {
	data := []byte(`
allowlists:
  commands:
    - ls
    - { command: "git status", trust: minimal }
`)
	doc, err := decodeStrict(data)
	if err != nil {
		t.Fatalf("decodeStrict: %v", err)
	}
	lc, err := convertDoc(doc, SourceGlobal)
	if err != nil {
		t.Fatalf("convertDoc: %v", err)
	}
	if len(lc.Allowlists) != 2 {
		t.Fatalf("expected 2 allowlist entries, got %d", len(lc.Allowlists))
	}
	if lc.Allowlists[0].Pattern != "ls" || lc.Allowlists[0].Trust != TrustStandard {
		t.Errorf("bare scalar entry: got %+v", lc.Allowlists[0])
	}
	if lc.Allowlists[1].Trust != TrustMinimal {
		t.Errorf("object entry: got %+v", lc.Allowlists[1])
	}
}

func TestConvertDocRejectsDuplicateRuleIDWithinLayer(t *testing.T) {
	data := []byte(`
rules:
  - id: dup
    level: high
    decision: ask
    reason: one
    match:
      command:
        name: a
  - id: dup
    level: high
    decision: deny
    reason: two
    match:
      command:
        name: b
`)
	doc, err := decodeStrict(data)
	if err != nil {
		t.Fatalf("decodeStrict: %v", err)
	}
	_, err = convertDoc(doc, SourceBuiltin)
	if err == nil {
		t.Fatal("expected error for duplicate rule id within a layer, got nil")
	}
}
