package jsonpatch

import (
	"bytes"
	"encoding/json"
	"fmt"

	jp "github.com/evanphx/json-patch/v5"
)

type PatchError struct {
	msg string
}

func (p *PatchError) Error() string {
	return p.msg
}

// Diff returns the RFC 7386 merge patch turning original into modified.
// Both must be JSON objects.
func Diff(original, modified []byte) (json.RawMessage, error) {
	patch, err := jp.CreateMergePatch(original, modified)
	if err != nil {
		return nil, fmt.Errorf("merge patch: %w", err)
	}
	return patch, nil
}

// Apply applies a merge patch to doc. Only object patches are supported,
// a patch replacing the whole document is rejected.
func Apply(patch, doc json.RawMessage) (json.RawMessage, error) {
	if p := bytes.TrimSpace(patch); len(p) == 0 || p[0] != '{' {
		return nil, &PatchError{fmt.Sprintf("unsupported merge patch %q, must be an object", patch)}
	}
	return jp.MergePatch(doc, patch)
}

// Empty tells if patch changes nothing.
func Empty(patch json.RawMessage) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(patch, &m) == nil && len(m) == 0
}
