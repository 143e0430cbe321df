package advice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingCompleter struct {
	prompts []string
	reply   string
	err     error
}

func (r *recordingCompleter) Complete(_ context.Context, p string) (string, error) {
	r.prompts = append(r.prompts, p)
	return r.reply, r.err
}

func TestServiceDiseaseInfo(t *testing.T) {
	rc := &recordingCompleter{reply: "## Cause\n..."}
	s := NewService(rc, zap.NewNop())

	out, err := s.DiseaseInfo(context.Background(), "Tomato___Late_blight", "Kannada", "Can I replant this season?")
	require.NoError(t, err)
	assert.Equal(t, "## Cause\n...", out)

	require.Len(t, rc.prompts, 1)
	assert.Contains(t, rc.prompts[0], "**Disease Name:** Tomato - Late blight")
	assert.Contains(t, rc.prompts[0], "Can I replant this season?")
	assert.Contains(t, rc.prompts[0], "Respond only in Kannada language.")
}

func TestServiceAsk(t *testing.T) {
	rc := &recordingCompleter{reply: "பதில்"}
	s := NewService(rc, zap.NewNop())

	out, err := s.Ask(context.Background(), "How do I treat leaf curl?", "Tamil")
	require.NoError(t, err)
	assert.Equal(t, "பதில்", out)
	require.Len(t, rc.prompts, 1)
	assert.Contains(t, rc.prompts[0], "Respond in Tamil.")
	assert.Contains(t, rc.prompts[0], "How do I treat leaf curl?")
}

func TestServicePropagatesErrors(t *testing.T) {
	upstream := &UpstreamError{Err: errors.New("connection refused")}
	s := NewService(&recordingCompleter{err: upstream}, zap.NewNop())

	_, err := s.Ask(context.Background(), "q", "")
	assert.Same(t, upstream, err)

	s = NewService(&recordingCompleter{err: ErrNotConfigured}, zap.NewNop())
	_, err = s.DiseaseInfo(context.Background(), "Rice_healthy", "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
