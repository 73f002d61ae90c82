package worldsync

import (
	"context"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/mxkacsa/worldsync/world"
)

// TriggerKind names a store mutation.
type TriggerKind string

const (
	TriggerLoadWorld       TriggerKind = "load_world"
	TriggerSetItemCount    TriggerKind = "set_item_count"
	TriggerCheckLocation   TriggerKind = "check_location"
	TriggerUncheckLocation TriggerKind = "uncheck_location"
)

// TriggerRecord is one applied trigger that can be persisted and replayed.
// AddItem is recorded as the absolute count it produced, so replaying
// never depends on the state it started from.
type TriggerRecord struct {
	// Sequence number for ordering; equals the snapshot version produced.
	Seq uint64 `json:"seq"`

	// Timestamp when the trigger was applied
	Timestamp time.Time `json:"ts"`

	Kind TriggerKind `json:"kind"`

	Item     string `json:"item,omitempty"`
	Count    int    `json:"count,omitempty"`
	Location string `json:"location,omitempty"`

	// For load_world
	Game   string    `json:"game,omitempty"`
	LoadID uuid.UUID `json:"load_id,omitempty"`
}

// TriggerRecorder captures triggers applied to a store.
// Attach it with WithRecorder.
type TriggerRecorder struct {
	mu      sync.Mutex
	records []TriggerRecord
}

// NewTriggerRecorder creates a new trigger recorder
func NewTriggerRecorder() *TriggerRecorder {
	return &TriggerRecorder{}
}

// Record appends rec.
func (r *TriggerRecorder) Record(rec TriggerRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Records returns a copy of all captured records
func (r *TriggerRecorder) Records() []TriggerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TriggerRecord(nil), r.records...)
}

// Len returns the number of captured records.
func (r *TriggerRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Clear removes all captured records
func (r *TriggerRecorder) Clear() {
	r.mu.Lock()
	r.records = r.records[:0]
	r.mu.Unlock()
}

// Drain returns all records and clears the buffer
func (r *TriggerRecorder) Drain() []TriggerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := r.records
	r.records = nil
	return records
}

// MarshalRecords serializes records to JSON for storage
func MarshalRecords(records []TriggerRecord) ([]byte, error) {
	return json.Marshal(records)
}

// UnmarshalRecords deserializes records from JSON
func UnmarshalRecords(data []byte) ([]TriggerRecord, error) {
	var records []TriggerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "unmarshal trigger records")
	}
	return records, nil
}

// Replay applies records to s in order. Every load_world record loads
// data, which must be the world the records were captured against.
// Replaying into a fresh store reproduces the recorded snapshots exactly.
func Replay(ctx context.Context, s *Store, data *world.Data, records []TriggerRecord) error {
	for _, rec := range records {
		if err := replayOne(ctx, s, data, rec); err != nil {
			return eris.Wrapf(err, "replay seq %d (%s)", rec.Seq, rec.Kind)
		}
	}
	return nil
}

// ReplayRange replays records within a sequence range [fromSeq, toSeq]
func ReplayRange(ctx context.Context, s *Store, data *world.Data, records []TriggerRecord, fromSeq, toSeq uint64) error {
	for _, rec := range records {
		if rec.Seq < fromSeq {
			continue
		}
		if rec.Seq > toSeq {
			break
		}
		if err := replayOne(ctx, s, data, rec); err != nil {
			return eris.Wrapf(err, "replay seq %d (%s)", rec.Seq, rec.Kind)
		}
	}
	return nil
}

func replayOne(ctx context.Context, s *Store, data *world.Data, rec TriggerRecord) error {
	var err error
	switch rec.Kind {
	case TriggerLoadWorld:
		if data == nil {
			return eris.New("no world to load")
		}
		if rec.Game != "" && rec.Game != data.Game {
			return eris.Errorf("recorded game %q, replaying %q", rec.Game, data.Game)
		}
		_, err = s.LoadWorld(ctx, data)
	case TriggerSetItemCount:
		_, err = s.SetItemCount(ctx, rec.Item, rec.Count)
	case TriggerCheckLocation:
		_, err = s.CheckLocation(ctx, rec.Location)
	case TriggerUncheckLocation:
		_, err = s.UncheckLocation(ctx, rec.Location)
	default:
		err = eris.Errorf("unknown trigger kind %q", rec.Kind)
	}
	return err
}
