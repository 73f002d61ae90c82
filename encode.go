package worldsync

import (
	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/wI2L/jsondiff"

	"github.com/mxkacsa/worldsync/state"
)

// SnapshotDoc is the wire form of a snapshot, shared by the JSON and
// msgpack encodings.
type SnapshotDoc struct {
	Version   uint64                  `json:"version" msgpack:"version"`
	LoadID    string                  `json:"load_id" msgpack:"load_id"`
	Passes    int                     `json:"passes" msgpack:"passes"`
	Inventory map[string]int          `json:"inventory" msgpack:"inventory"`
	Checked   []string                `json:"checked" msgpack:"checked"`
	Events    []string                `json:"events" msgpack:"events"`
	Regions   map[string]state.Status `json:"regions" msgpack:"regions"`
	Locations map[string]bool         `json:"locations" msgpack:"locations"`
}

// Document converts s to its wire form.
func Document(s *state.Snapshot) SnapshotDoc {
	return SnapshotDoc{
		Version:   s.Version(),
		LoadID:    s.LoadID().String(),
		Passes:    s.Passes(),
		Inventory: s.Inventory(),
		Checked:   s.Inputs().Checked(),
		Events:    s.Events(),
		Regions:   s.Regions(),
		Locations: s.Locations(),
	}
}

// EncodeSnapshot encodes s as msgpack.
func EncodeSnapshot(s *state.Snapshot) ([]byte, error) {
	data, err := msgpack.Marshal(Document(s))
	if err != nil {
		return nil, eris.Wrap(err, "encode snapshot")
	}
	return data, nil
}

// DecodeSnapshot decodes a msgpack snapshot document.
func DecodeSnapshot(data []byte) (SnapshotDoc, error) {
	var doc SnapshotDoc
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return SnapshotDoc{}, eris.Wrap(err, "decode snapshot")
	}
	return doc, nil
}

// MarshalSnapshotJSON encodes s as JSON.
func MarshalSnapshotJSON(s *state.Snapshot) ([]byte, error) {
	return json.Marshal(Document(s))
}

// Patch returns the RFC 6902 JSON patch turning prev's document into
// next's. Consumers holding prev apply it instead of refetching.
func Patch(prev, next *state.Snapshot) (jsondiff.Patch, error) {
	if prev == nil {
		prev = state.Empty()
	}
	from, err := MarshalSnapshotJSON(prev)
	if err != nil {
		return nil, eris.Wrap(err, "marshal previous snapshot")
	}
	to, err := MarshalSnapshotJSON(next)
	if err != nil {
		return nil, eris.Wrap(err, "marshal next snapshot")
	}
	patch, err := jsondiff.CompareJSON(from, to)
	if err != nil {
		return nil, eris.Wrap(err, "diff snapshots")
	}
	return patch, nil
}
