package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, p := range m.Parts {
			if text, ok := p.(llms.TextContent); ok {
				f.prompt += text.Text
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestExtractJobDetails(t *testing.T) {
	model := &fakeModel{reply: "```json\n{\"title\":\"Backend Intern\",\"companyName\":\"Acme\",\"techStack\":[\"Go\",\"Postgres\"]}\n```"}
	svc := &LLMService{Client: model}

	draft, err := svc.ExtractJobDetails(context.Background(), `<html><body><nav>Home</nav><h1>Backend Intern</h1><script>track()</script><p>Acme is hiring</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Backend Intern", draft.Title)
	assert.Equal(t, "Acme", draft.CompanyName)
	assert.Equal(t, []string{"Go", "Postgres"}, draft.TechStack)

	assert.Contains(t, model.prompt, "Backend Intern\nAcme is hiring")
	assert.NotContains(t, model.prompt, "track()")
	assert.NotContains(t, model.prompt, "Home")
}

func TestExtractJobDetailsErrors(t *testing.T) {
	ctx := context.Background()

	var unset *LLMService
	_, err := unset.ExtractJobDetails(ctx, "<p>x</p>")
	assert.ErrorIs(t, err, ErrLLMUnavailable)

	svc := &LLMService{Client: &fakeModel{reply: "not json"}}
	_, err = svc.ExtractJobDetails(ctx, "<p>x</p>")
	assert.ErrorIs(t, err, ErrInvalidModelOutput)

	_, err = svc.ExtractJobDetails(ctx, "   ")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	boom := errors.New("quota exceeded")
	svc = &LLMService{Client: &fakeModel{err: boom}}
	_, err = svc.ExtractJobDetails(ctx, "<p>x</p>")
	assert.ErrorIs(t, err, boom)
}

func TestExtractionInputIsTruncated(t *testing.T) {
	model := &fakeModel{reply: "{}"}
	svc := &LLMService{Client: model}
	_, err := svc.ExtractJobDetails(context.Background(), strings.Repeat("é", maxExtractionInput+500))
	require.NoError(t, err)
	assert.Equal(t, maxExtractionInput, strings.Count(model.prompt, "é"))
}

func TestHTMLToText(t *testing.T) {
	got := HTMLToText(`<div><p>Hello <b>world</b></p><style>p{}</style><ul><li>Go</li><li>SQL</li></ul></div>`)
	assert.Equal(t, "Hello world\nGo\nSQL", got)
	assert.Equal(t, "plain text here", HTMLToText("  plain   text\n here "))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(` {"a":1} `))
}
