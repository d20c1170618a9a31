package journal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bombparty/internal/protocol"
	"github.com/jason-s-yu/bombparty/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	records []Record
	failOn  int
	got     chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{got: make(chan struct{}, 64)}
}

func (f *fakePublisher) Publish(_ context.Context, rec Record) error {
	defer func() { f.got <- struct{}{} }()
	if rec.Index == f.failOn {
		return errors.New("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakePublisher) snapshot() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.records...)
}

func (f *fakePublisher) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.got:
		case <-time.After(3 * time.Second):
			t.Fatalf("only %d of %d records published", i, n)
		}
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// playSession drives a machine through join, a turn and a submit with j attached.
func playSession(j *Journal) {
	m := session.NewMachine(nopSender{}, quietLogger(), j)
	m.SetConnected(true)
	m.Join("Ana")
	m.Receive(protocol.NewTurn{Question: "OUI", ActivePlayer: "Ana"})
	m.Submit("oui")
}

type nopSender struct{}

func (nopSender) Send(protocol.Outbound) {}

func TestJournalRecordsTransitions(t *testing.T) {
	pub := newFakePublisher()
	j := New(uuid.New(), pub, quietLogger(), 0)
	j.now = func() time.Time { return time.UnixMilli(1700000000000) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go j.Run(ctx)

	playSession(j)
	pub.wait(t, 5)

	recs := pub.snapshot()
	require.Len(t, recs, 5)

	type row struct{ dir, typ, phase string }
	var rows []row
	for i, r := range recs {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, j.SessionID(), r.SessionID)
		assert.Equal(t, int64(1700000000000), r.Timestamp)
		rows = append(rows, row{r.Direction, r.Type, r.Phase})
	}
	assert.Equal(t, []row{
		{DirectionLink, "connected", "NotJoined"},
		{DirectionOut, "JOIN", "WaitingRoom"},
		{DirectionIn, "NEW_TURN", "ActiveGame"},
		{DirectionOut, "SUBMIT", "ActiveGame"},
		{DirectionOut, "TYPING", "ActiveGame"},
	}, rows)

	assert.JSONEq(t, `{"type":"JOIN","name":"Ana"}`, string(recs[1].Payload))
	var turn protocol.NewTurn
	require.NoError(t, json.Unmarshal(recs[2].Payload, &turn))
	assert.Equal(t, "OUI", turn.Question)
}

func TestJournalDropsWhenBufferFull(t *testing.T) {
	pub := newFakePublisher()
	j := New(uuid.New(), pub, quietLogger(), 2)

	// Run is not started, so only two records fit.
	playSession(j)
	assert.Len(t, j.queue, 2)
}

func TestJournalKeepsGoingAfterPublishError(t *testing.T) {
	pub := newFakePublisher()
	pub.failOn = 1
	j := New(uuid.New(), pub, quietLogger(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go j.Run(ctx)

	playSession(j)
	pub.wait(t, 5)
	recs := pub.snapshot()
	require.Len(t, recs, 4)
	assert.Equal(t, 2, recs[0].Index)
}

func TestJournalDrainsOnShutdown(t *testing.T) {
	pub := newFakePublisher()
	j := New(uuid.New(), pub, quietLogger(), 0)
	playSession(j)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j.Run(ctx)

	assert.Len(t, pub.snapshot(), 5)
}

func TestRedisPublisher(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	pub, err := ConnectRedis(ctx, addr, 0, "bombparty_test_"+time.Now().Format("150405.000"))
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer pub.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	defer rdb.Del(ctx, pub.Queue())

	rec := Record{Index: 1, Direction: DirectionOut, Type: "JOIN", Payload: json.RawMessage(`{"type":"JOIN","name":"Ana"}`)}
	require.NoError(t, pub.Publish(ctx, rec))

	raw, err := rdb.LPop(ctx, pub.Queue()).Result()
	require.NoError(t, err)
	var got Record
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, rec.Type, got.Type)
	assert.JSONEq(t, string(rec.Payload), string(got.Payload))
}
