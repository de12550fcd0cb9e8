package carbonfootprint

import (
	"fmt"
)

// DecodeErr reports inputs that could not be read at all, for example a request
// body that is not valid JSON. Unusable numbers are never a DecodeErr: they
// read as zero.
type DecodeErr struct {
	Err    error
	Source string
}

func (decodeErr *DecodeErr) Error() string {
	return fmt.Sprintf("failed to decode inputs (source: %s): %s", decodeErr.Source, decodeErr.Err.Error())
}

func (decodeErr *DecodeErr) Unwrap() error {
	return decodeErr.Err
}

func MergeLabels(labels ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, l := range labels {
		for k, v := range l {
			if v == "" {
				continue
			}
			result[k] = v
		}
	}
	return result
}
