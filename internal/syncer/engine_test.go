package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/roamlabs/roam/internal/action"
	"github.com/roamlabs/roam/internal/netmon"
	"github.com/roamlabs/roam/internal/queue"
	"github.com/roamlabs/roam/internal/store"
)

// fakeRemote records dispatch order and fails for configured payloads.
type fakeRemote struct {
	calls []string // "<type>:<data>" in dispatch order
	fail  map[string]bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{fail: make(map[string]bool)}
}

func (r *fakeRemote) record(typ string, data json.RawMessage) error {
	call := typ + ":" + string(data)
	r.calls = append(r.calls, call)
	if r.fail[string(data)] {
		return fmt.Errorf("remote rejected %s", call)
	}
	return nil
}

func (r *fakeRemote) SubmitFact(ctx context.Context, key string, data json.RawMessage) error {
	return r.record("submit_fact", data)
}
func (r *fakeRemote) Vote(ctx context.Context, key string, data json.RawMessage) error {
	return r.record("vote", data)
}
func (r *fakeRemote) Comment(ctx context.Context, key string, data json.RawMessage) error {
	return r.record("comment", data)
}
func (r *fakeRemote) SaveFact(ctx context.Context, key string, data json.RawMessage) error {
	return r.record("save_fact", data)
}

func enqueue(t *testing.T, q *queue.Queue, typ action.Type, payload string) *action.PendingAction {
	t.Helper()
	a, err := q.Enqueue(context.Background(), typ, json.RawMessage(payload))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return a
}

func TestSyncNow_DrainsInOrder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	q := queue.New(s, nil, nil)
	remote := newFakeRemote()
	engine := New(s, q, remote, nil)

	enqueue(t, q, action.TypeSubmitFact, `{"t":1}`)
	enqueue(t, q, action.TypeVote, `{"t":2}`)
	enqueue(t, q, action.TypeComment, `{"t":3}`)

	stats, err := engine.SyncNow(ctx)
	if err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}

	if stats.Total != 3 || stats.Synced != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 3/3/0", stats)
	}

	want := []string{`submit_fact:{"t":1}`, `vote:{"t":2}`, `comment:{"t":3}`}
	if len(remote.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", remote.calls, want)
	}
	for i, call := range want {
		if remote.calls[i] != call {
			t.Errorf("calls[%d] = %q, want %q (enqueue order must be preserved)", i, remote.calls[i], call)
		}
	}

	// Store and mirror are both drained
	actions, _ := s.ListActions(ctx)
	if len(actions) != 0 {
		t.Errorf("store still holds %d actions, want 0", len(actions))
	}
	if len(q.Pending()) != 0 {
		t.Errorf("mirror still holds %d actions, want 0", len(q.Pending()))
	}
}

func TestSyncNow_PartialFailureIsolated(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	q := queue.New(s, nil, nil)
	remote := newFakeRemote()
	remote.fail[`{"t":2}`] = true
	engine := New(s, q, remote, nil)

	enqueue(t, q, action.TypeVote, `{"t":1}`)
	poisoned := enqueue(t, q, action.TypeVote, `{"t":2}`)
	enqueue(t, q, action.TypeVote, `{"t":3}`)

	stats, err := engine.SyncNow(ctx)
	if err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}

	if stats.Synced != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want synced=2 failed=1", stats)
	}

	// The poisoned action did not block the one behind it
	if len(remote.calls) != 3 {
		t.Fatalf("calls = %v, want all 3 dispatched", remote.calls)
	}

	// Exactly the failed action remains, unmodified
	actions, _ := s.ListActions(ctx)
	if len(actions) != 1 {
		t.Fatalf("store holds %d actions, want 1", len(actions))
	}
	if actions[0].ID != poisoned.ID {
		t.Errorf("remaining ID = %d, want %d", actions[0].ID, poisoned.ID)
	}
	if string(actions[0].Data) != `{"t":2}` {
		t.Errorf("remaining Data = %s, want untouched payload", actions[0].Data)
	}
	if actions[0].IdempotencyKey != poisoned.IdempotencyKey {
		t.Error("retained action must keep its idempotency key for the retry")
	}

	// A later drain with the remote recovered clears it
	remote.fail = map[string]bool{}
	stats, err = engine.SyncNow(ctx)
	if err != nil {
		t.Fatalf("second SyncNow failed: %v", err)
	}
	if stats.Total != 1 || stats.Synced != 1 {
		t.Errorf("second stats = %+v, want 1/1", stats)
	}
	actions, _ = s.ListActions(ctx)
	if len(actions) != 0 {
		t.Errorf("store still holds %d actions after recovery, want 0", len(actions))
	}
}

func TestSyncNow_EmptyQueue(t *testing.T) {
	s := store.NewMemory()
	engine := New(s, nil, newFakeRemote(), nil)

	stats, err := engine.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}
	if stats.Total != 0 || stats.Synced != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestSyncNow_ReadsStoreNotMirror(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	// An action persisted by a previous session, absent from any mirror
	a, err := action.New(action.TypeSaveFact, json.RawMessage(`{"old":true}`))
	if err != nil {
		t.Fatalf("action.New failed: %v", err)
	}
	if _, err := s.PutAction(ctx, a); err != nil {
		t.Fatalf("PutAction failed: %v", err)
	}

	q := queue.New(s, nil, nil) // empty mirror on purpose
	remote := newFakeRemote()
	engine := New(s, q, remote, nil)

	stats, err := engine.SyncNow(ctx)
	if err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}
	if stats.Synced != 1 {
		t.Errorf("Synced = %d, want 1 (pre-session action must be drained)", stats.Synced)
	}
	if len(remote.calls) != 1 || remote.calls[0] != `save_fact:{"old":true}` {
		t.Errorf("calls = %v, want the pre-session action", remote.calls)
	}
}

func TestSyncNow_UnknownTypeRetained(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	a, err := action.New("share_fact", nil)
	if err != nil {
		t.Fatalf("action.New failed: %v", err)
	}
	if _, err := s.PutAction(ctx, a); err != nil {
		t.Fatalf("PutAction failed: %v", err)
	}

	engine := New(s, nil, newFakeRemote(), nil)
	stats, err := engine.SyncNow(ctx)
	if err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}

	actions, _ := s.ListActions(ctx)
	if len(actions) != 1 {
		t.Errorf("unknown-type action must stay queued")
	}
}

func TestAttach_SyncsOnReconnect(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	q := queue.New(s, nil, nil)
	remote := newFakeRemote()
	engine := New(s, q, remote, nil)

	monitor := netmon.New(&staticProber{online: false}, time.Second, nil)
	engine.Attach(monitor)

	enqueue(t, q, action.TypeVote, `{"t":1}`)

	monitor.SetOnline(true)

	actions, _ := s.ListActions(ctx)
	if len(actions) != 0 {
		t.Errorf("store holds %d actions after reconnect, want 0", len(actions))
	}
	if len(remote.calls) != 1 {
		t.Errorf("calls = %v, want 1 dispatch on reconnect", remote.calls)
	}
}

type staticProber struct{ online bool }

func (p *staticProber) Online(ctx context.Context) bool { return p.online }
