package httputil

import (
	"bytes"
	"encoding/json"

	dErrors "reconciler/pkg/domain-errors"
)

// FlexString decodes a JSON string or number into a string, keeping the
// number's literal digits. Clients send phone numbers both ways.
type FlexString struct {
	Value *string
}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Value = &s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "expected a string or a number")
	}
	s = n.String()
	f.Value = &s
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}
