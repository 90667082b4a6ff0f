package judge

import "testing"

func TestParseResponseAllow(t *testing.T) {
	d, reason := ParseResponse("ALLOW: safe computation only")
	if d != Allow || reason != "ALLOW: safe computation only" {
		t.Errorf("got (%v, %q)", d, reason)
	}
}

func TestParseResponseAsk(t *testing.T) {
	d, reason := ParseResponse("ASK: accesses files outside cwd")
	if d != Ask || reason != "ASK: accesses files outside cwd" {
		t.Errorf("got (%v, %q)", d, reason)
	}
}

func TestParseResponseWithNoiseBefore(t *testing.T) {
	d, reason := ParseResponse("Loading model...\nALLOW: safe computation")
	if d != Allow || reason != "ALLOW: safe computation" {
		t.Errorf("got (%v, %q)", d, reason)
	}
}

func TestParseResponseWithNoiseAfter(t *testing.T) {
	d, reason := ParseResponse("ASK: network access\nTokens used: 150")
	if d != Ask || reason != "ASK: network access" {
		t.Errorf("got (%v, %q)", d, reason)
	}
}

func TestParseResponseUnparseable(t *testing.T) {
	d, reason := ParseResponse("something random")
	if d != Ask {
		t.Errorf("expected Ask for unparseable output, got %v", d)
	}
	if reason == "" {
		t.Error("expected a non-empty diagnostic reason")
	}
}

func TestParseResponseEmpty(t *testing.T) {
	d, _ := ParseResponse("")
	if d != Ask {
		t.Errorf("expected Ask for empty output, got %v", d)
	}
}
