package compatible

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	seen  [][]*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = append(f.seen, input)
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestNewLLMService_RequiresBaseURLAndModel(t *testing.T) {
	_, err := NewLLMService(context.Background(), Config{Model: "m"})
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "llm.base_url", cfgErr.Field)

	_, err = NewLLMService(context.Background(), Config{BaseURL: "http://localhost:8000/v1"})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "llm.model", cfgErr.Field)
}

func TestGenerate(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("It is corrosive.", nil)}
	s := NewWithChatModel(fake, "qwen2.5")

	replies, err := s.Generate(context.Background(), "What is sulfuric acid?", driven.GenerateOptions{MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"It is corrosive."}, replies)

	require.Len(t, fake.seen, 1)
	require.Len(t, fake.seen[0], 1)
	assert.Equal(t, schema.User, fake.seen[0][0].Role)
	assert.Equal(t, "What is sulfuric acid?", fake.seen[0][0].Content)
	assert.Equal(t, "qwen2.5", s.ModelName())
}

func TestGenerate_Failure(t *testing.T) {
	s := NewWithChatModel(&fakeChatModel{err: errors.New("dial tcp: refused")}, "m")

	_, err := s.Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), domain.ErrLLMUnavailable)
}

func TestGenerate_EmptyReply(t *testing.T) {
	s := NewWithChatModel(&fakeChatModel{reply: schema.AssistantMessage("", nil)}, "m")

	replies, err := s.Generate(context.Background(), "q", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Empty(t, replies)
}
