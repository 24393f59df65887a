package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return nil
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"p1", "p1"},
		{"", "_"},
		{"acme.web", "acme_web"},
		{"a b", "a_b"},
		{"wild*card>", "wild_card_"},
		{"tab\there", "tab_here"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeToken(tt.in))
		})
	}
}

func TestNATSPublisher_Publish(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "desk.events.", nil)

	rec := models.CoordinationRecord{ID: "r1", ProjectID: "acme.web", Status: models.StatusInProgress}
	err := p.Publish(context.Background(), Event{Event: StatusChanged, Record: rec})
	require.NoError(t, err)

	require.Len(t, fc.msgs, 1)
	assert.Equal(t, "desk.events.acme_web.in_progress", fc.msgs[0].subject)

	var got Event
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &got))
	assert.Equal(t, StatusChanged, got.Event)
	assert.Equal(t, "r1", got.Record.ID)
	assert.False(t, got.At.IsZero(), "At should be stamped")
}

func TestNATSPublisher_DefaultPrefix(t *testing.T) {
	p := newPublisher(&fakeConn{}, "", nil)
	subject := p.Subject(models.CoordinationRecord{ProjectID: "p1", Status: models.StatusPending})
	assert.Equal(t, DefaultSubjectPrefix+".p1.pending", subject)
}

func TestNATSPublisher_Errors(t *testing.T) {
	fc := &fakeConn{err: errors.New("connection closed")}
	p := newPublisher(fc, "", nil)

	err := p.Publish(context.Background(), Event{Event: Created})
	assert.ErrorContains(t, err, "connection closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Publish(ctx, Event{Event: Created})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Event: Created}))
	assert.NoError(t, p.Close())
}
