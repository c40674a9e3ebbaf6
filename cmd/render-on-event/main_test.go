package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/Lllllllleong/businessdocs/internal/render"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	got []*models.RenderRequest
	err error
}

func (p *recordingProcessor) Process(_ context.Context, req *models.RenderRequest) (*models.RenderResponse, error) {
	p.got = append(p.got, req)
	if p.err != nil {
		return nil, p.err
	}
	return &models.RenderResponse{Status: models.JobStatusRendered}, nil
}

func pubsubEvent(t *testing.T, payload string) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	e.SetSource("//pubsub.googleapis.com/projects/p/topics/render")
	data := fmt.Sprintf(`{"message":{"data":%q,"messageId":"m-42"},"subscription":"s"}`,
		base64.StdEncoding.EncodeToString([]byte(payload)))
	require.NoError(t, e.SetData(cloudevents.ApplicationJSON, []byte(data)))
	return e
}

func TestHandleEventDecodesPubSubPayload(t *testing.T) {
	p := &recordingProcessor{}
	err := handleEvent(context.Background(), p, pubsubEvent(t, `{"kind":"quotation","documentId":"q-1"}`))
	require.NoError(t, err)
	require.Len(t, p.got, 1)
	assert.Equal(t, "quotation", p.got[0].Kind)
	assert.Equal(t, "q-1", p.got[0].DocumentID)
	assert.Equal(t, "m-42", p.got[0].ExecutionID)
}

func TestHandleEventErrors(t *testing.T) {
	t.Run("undecodable payload is dropped", func(t *testing.T) {
		p := &recordingProcessor{}
		assert.NoError(t, handleEvent(context.Background(), p, pubsubEvent(t, "not json")))
		assert.Empty(t, p.got)
	})

	t.Run("input errors are dropped", func(t *testing.T) {
		p := &recordingProcessor{err: &render.GenerationError{Op: "validate", Err: render.ErrInvalidAmount}}
		assert.NoError(t, handleEvent(context.Background(), p, pubsubEvent(t, `{"kind":"invoice","documentId":"i"}`)))
	})

	t.Run("transient errors are returned for redelivery", func(t *testing.T) {
		p := &recordingProcessor{err: errors.New("bucket unavailable")}
		assert.Error(t, handleEvent(context.Background(), p, pubsubEvent(t, `{"kind":"invoice","documentId":"i"}`)))
	})
}
