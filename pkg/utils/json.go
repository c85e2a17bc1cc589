package utils

import (
	jsoniter "github.com/json-iterator/go"
)

// PrettyJSON indents a value, or an already encoded JSON document when given []byte.
func PrettyJSON(in any) (string, error) {
	json := jsoniter.ConfigCompatibleWithStandardLibrary

	if raw, ok := in.([]byte); ok {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return "", err
		}
		in = decoded
	}

	out, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", err
	}

	return string(out), nil
}
