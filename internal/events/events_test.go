package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_Append(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWriter(dir, "decisions.jsonl")
	require.NoError(t, err)

	d1 := Decision{SubmissionID: "s1", Decision: DecisionApproved, ModeratorID: "m1", TS: 1}
	d2 := Decision{SubmissionID: "s2", Decision: DecisionRejected, ModeratorID: "m1", Reason: "duplicate", TS: 2}
	require.NoError(t, w.Append(context.Background(), d1))
	require.NoError(t, w.Append(context.Background(), d2))

	f, err := os.Open(filepath.Join(dir, "decisions.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var got []Decision
	s := bufio.NewScanner(f)
	for s.Scan() {
		var d Decision
		require.NoError(t, json.Unmarshal(s.Bytes(), &d))
		got = append(got, d)
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []Decision{d1, d2}, got)
}

type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaWriter_Append(t *testing.T) {
	fk := &fakeKafkaWriter{}
	kw := NewKafkaWriterWith(fk)
	require.NoError(t, kw.Append(context.Background(), Decision{SubmissionID: "s1", Decision: DecisionApproved}))
	require.Len(t, fk.msgs, 1)
	assert.Equal(t, "s1", string(fk.msgs[0].Key))

	fk.fail = true
	assert.Error(t, kw.Append(context.Background(), Decision{SubmissionID: "s2"}))
}

func TestMultiWriter_StopsOnFirstError(t *testing.T) {
	ok := &fakeKafkaWriter{}
	bad := &fakeKafkaWriter{fail: true}
	after := &fakeKafkaWriter{}
	m := NewMultiWriter(NewKafkaWriterWith(ok), NewKafkaWriterWith(bad), NewKafkaWriterWith(after))

	assert.Error(t, m.Append(context.Background(), Decision{SubmissionID: "s1"}))
	assert.Len(t, ok.msgs, 1)
	assert.Empty(t, after.msgs)
}
