package nullable

import (
	"encoding/json"
	"testing"
)

func TestFieldDistinguishesMissingFromNull(t *testing.T) {
	var in struct {
		TeamID Field[uint] `json:"team_id"`
	}

	if err := json.Unmarshal([]byte(`{}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.TeamID.Set {
		t.Errorf("missing key should be unset")
	}

	if err := json.Unmarshal([]byte(`{"team_id":null}`), &in); err != nil {
		t.Fatal(err)
	}
	if !in.TeamID.Set || in.TeamID.Value != nil {
		t.Errorf("null = %+v, want set with nil value", in.TeamID)
	}

	if err := json.Unmarshal([]byte(`{"team_id":4}`), &in); err != nil {
		t.Fatal(err)
	}
	if !in.TeamID.Set || in.TeamID.Value == nil || *in.TeamID.Value != 4 {
		t.Errorf("4 = %+v", in.TeamID)
	}

	if err := json.Unmarshal([]byte(`{"team_id":"x"}`), &in); err == nil {
		t.Errorf("string into uint should fail")
	}
}
