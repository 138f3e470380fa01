package types

import "encoding/json"

// Session field names as stored in redis. A session is a flat
// string-to-string map so the store needs no schema.
const (
	FieldState          = "state"
	FieldEndpoints      = "endpoints"
	FieldActiveEndpoint = "active_endpoint"
	FieldCreatedAt      = "created_at"
)

// Session holds the per-user dialog state. An empty (or nil) session
// means the user has no open dialog.
type Session map[string]string

// Exists reports whether the session holds any data.
func (s Session) Exists() bool {
	return len(s) > 0
}

// State returns the stored state name, empty when unset.
func (s Session) State() string {
	return s[FieldState]
}

// ActiveEndpoint returns the endpoint the user selected, empty when no
// selection has been made.
func (s Session) ActiveEndpoint() string {
	return s[FieldActiveEndpoint]
}

// Endpoints decodes the endpoint list snapshotted when the menu was
// presented. The wire form is a JSON array of strings.
func (s Session) Endpoints() ([]string, error) {
	raw, ok := s[FieldEndpoints]
	if !ok {
		return nil, nil
	}
	var endpoints []string
	if err := json.Unmarshal([]byte(raw), &endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}

// EncodeEndpoints serializes an endpoint list to its wire form.
func EncodeEndpoints(endpoints []string) (string, error) {
	data, err := json.Marshal(endpoints)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Merge copies every field of patch into the session, overwriting
// existing fields.
func (s Session) Merge(patch map[string]string) {
	for k, v := range patch {
		s[k] = v
	}
}
