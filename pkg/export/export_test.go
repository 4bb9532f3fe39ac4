package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct {
	markup, vector string
	err            error
	async          bool
	opts           []ports.SerializeOptions
}

func (e *engine) call(text string, opts ports.SerializeOptions, cb ports.SerializeCallback) {
	e.opts = append(e.opts, opts)
	if e.async {
		go func() {
			time.Sleep(5 * time.Millisecond)
			cb(text, e.err)
		}()
		return
	}
	cb(text, e.err)
}

func (e *engine) SerializeMarkup(opts ports.SerializeOptions, cb ports.SerializeCallback) {
	e.call(e.markup, opts, cb)
}

func (e *engine) SerializeVector(opts ports.SerializeOptions, cb ports.SerializeCallback) {
	e.call(e.vector, opts, cb)
}

type sink struct{ got []domain.ExportArtifact }

func (s *sink) Download(_ context.Context, a domain.ExportArtifact) error {
	s.got = append(s.got, a)
	return nil
}

func TestExport_DefaultFilenames(t *testing.T) {
	e := &engine{markup: "<definitions/>", vector: "<svg/>"}
	d := &sink{}
	s := New(e, d)

	a, err := s.Export(context.Background(), domain.ExportMarkup, "")
	require.NoError(t, err)
	assert.Equal(t, "diagram.bpmn", a.Filename)
	assert.Equal(t, "<definitions/>", a.Payload)

	v, err := s.Export(context.Background(), domain.ExportVector, "")
	require.NoError(t, err)
	assert.Equal(t, "diagram.svg", v.Filename)

	assert.Len(t, d.got, 2, "one download per artifact")
	assert.True(t, e.opts[0].Format)
}

func TestExport_ExplicitFilename(t *testing.T) {
	s := New(&engine{markup: "x"}, &sink{})
	a, err := s.Export(context.Background(), domain.ExportMarkup, "order.bpmn")
	require.NoError(t, err)
	assert.Equal(t, "order.bpmn", a.Filename)
}

func TestExport_EngineFailureProducesNothing(t *testing.T) {
	boom := errors.New("no root element")
	d := &sink{}
	s := New(&engine{err: boom}, d)

	a, err := s.Export(context.Background(), domain.ExportVector, "")
	assert.ErrorIs(t, err, domain.ErrSerialization)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.ExportArtifact{}, a)
	assert.Empty(t, d.got)
}

func TestPending_AsyncCallback(t *testing.T) {
	s := New(&engine{markup: "<x/>", async: true}, nil)

	p, err := s.Request(domain.ExportMarkup, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ExportMarkup, p.Kind())

	a, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<x/>", a.Payload)
}

func TestPending_AwaitHonoursContext(t *testing.T) {
	p := newPending(domain.ExportMarkup, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPending_ExtraCallbacksDropped(t *testing.T) {
	p := newPending(domain.ExportMarkup, "")
	p.complete("first", nil)
	p.complete("second", nil)

	a, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", a.Payload)
}

func TestRequest_UnknownKind(t *testing.T) {
	_, err := New(&engine{}, nil).Request("png", "")
	assert.Error(t, err)
}

func TestExport_DownloadFailure(t *testing.T) {
	boom := errors.New("disk full")
	s := New(&engine{markup: "x"}, ports.DownloaderFunc(func(context.Context, domain.ExportArtifact) error {
		return boom
	}))
	a, err := s.Export(context.Background(), domain.ExportMarkup, "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "diagram.bpmn", a.Filename)
}
