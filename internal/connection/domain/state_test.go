package domain

import "testing"

func TestDecodeStateMalformedUsesDefaults(t *testing.T) {
	for _, state := range []string{"", "not-json", "{\"orgId\":", "%7B%22orgId"} {
		meta, ok := DecodeState(state)
		if ok {
			t.Errorf("state %q: expected ok=false", state)
		}
		if meta.SendMode != SendModeDraft {
			t.Errorf("state %q: expected draft send mode, got %q", state, meta.SendMode)
		}
		if meta.RevealAI == nil || !*meta.RevealAI {
			t.Errorf("state %q: expected reveal_ai default true", state)
		}
		if meta.OrgID != "" {
			t.Errorf("state %q: expected empty org, got %q", state, meta.OrgID)
		}
	}
}

func TestDecodeStateFields(t *testing.T) {
	meta, ok := DecodeState(`{"orgId":"org-1","purpose":"support","frequency":"30","sendMode":"send","provider":"google","reveal_ai":false}`)
	if !ok {
		t.Fatal("expected valid state")
	}
	if meta.OrgID != "org-1" || meta.Purpose != "support" || meta.Provider != ProviderGoogle {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.SendMode != SendModeSend {
		t.Errorf("expected send mode, got %q", meta.SendMode)
	}
	if meta.Frequency == nil || *meta.Frequency != 30 {
		t.Errorf("expected frequency 30, got %v", meta.Frequency)
	}
	if meta.RevealAI == nil || *meta.RevealAI {
		t.Error("expected reveal_ai false to survive decoding")
	}
}

func TestDecodeStateUnknownSendModeFallsBack(t *testing.T) {
	meta, ok := DecodeState(`{"orgId":"org-1","sendMode":"yolo","frequency":0}`)
	if !ok {
		t.Fatal("expected valid state")
	}
	if meta.SendMode != SendModeDraft {
		t.Errorf("expected draft, got %q", meta.SendMode)
	}
	if meta.Frequency != nil {
		t.Errorf("expected no frequency for 0, got %d", *meta.Frequency)
	}
}

func TestEncodeDecodeState(t *testing.T) {
	freq := 60
	reveal := false
	in := StateMetadata{OrgID: "org-9", Purpose: "sales", Frequency: &freq, SendMode: SendModeSend, Provider: ProviderOutlook, RevealAI: &reveal}
	encoded, err := in.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out, ok := DecodeState(encoded)
	if !ok {
		t.Fatal("expected encoded state to decode")
	}
	if out.OrgID != in.OrgID || out.Provider != in.Provider || *out.Frequency != 60 || *out.RevealAI {
		t.Errorf("state changed across encode/decode: %+v", out)
	}
}
