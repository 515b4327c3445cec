package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// StateMetadata is the caller metadata carried through the OAuth state parameter.
// It is encoded as plain JSON and is not signed.
type StateMetadata struct {
	OrgID     string   `json:"orgId"`
	Purpose   string   `json:"purpose"`
	Frequency *int     `json:"frequency,omitempty"`
	SendMode  SendMode `json:"sendMode"`
	Provider  Provider `json:"provider"`
	RevealAI  *bool    `json:"reveal_ai,omitempty"`
}

// Encode serializes the metadata for the state parameter.
func (m StateMetadata) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// wireState accepts frequency as a number or a numeric string; the dashboard form sends either.
type wireState struct {
	OrgID     string          `json:"orgId"`
	Purpose   string          `json:"purpose"`
	Frequency json.RawMessage `json:"frequency"`
	SendMode  SendMode        `json:"sendMode"`
	Provider  Provider        `json:"provider"`
	RevealAI  *bool           `json:"reveal_ai"`
}

// DecodeState parses a state parameter. ok is false when the value was not
// valid JSON; the returned metadata then only carries defaults.
func DecodeState(state string) (meta StateMetadata, ok bool) {
	if strings.TrimSpace(state) == "" {
		return meta.withDefaults(), false
	}
	var w wireState
	if err := json.Unmarshal([]byte(state), &w); err != nil {
		return meta.withDefaults(), false
	}
	meta = StateMetadata{
		OrgID:     w.OrgID,
		Purpose:   w.Purpose,
		Frequency: parseFrequency(w.Frequency),
		SendMode:  w.SendMode,
		Provider:  w.Provider,
		RevealAI:  w.RevealAI,
	}
	return meta.withDefaults(), true
}

func (m StateMetadata) withDefaults() StateMetadata {
	if !m.SendMode.Valid() {
		m.SendMode = SendModeDraft
	}
	if m.RevealAI == nil {
		reveal := true
		m.RevealAI = &reveal
	}
	return m
}

// parseFrequency treats zero, negative and unparseable values as "no schedule".
func parseFrequency(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		n = float64(parsed)
	}
	if n <= 0 {
		return nil
	}
	v := int(n)
	return &v
}
