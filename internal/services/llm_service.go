package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"golang.org/x/net/html"
)

const maxExtractionInput = 20000

// LLMService turns a pasted job posting into a draft the company can review
// before publishing.
type LLMService struct {
	Client llms.Model
}

// NewLLMService connects to Gemini.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, ErrLLMUnavailable
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided text from an internship or job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "companyName": "Name of the company (e.g., Google, StartupInc)",
    "title": "Job title (e.g., Backend Engineering Intern)",
    "location": "Job location or 'Remote'",
    "description": "A clean summary of the job. Focus on Responsibilities and Requirements.",
    "stipend": "The stipend or salary string if explicitly mentioned, otherwise null",
    "deadline": "Application deadline as YYYY-MM-DD if mentioned, otherwise null",
    "techStack": ["Array", "of", "technologies", "mentioned"]
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractJobDetails strips markup from raw, asks the model for the posting's
// fields and decodes its answer.
func (s *LLMService) ExtractJobDetails(ctx context.Context, raw string) (*dtos.JobDraft, error) {
	if s == nil || s.Client == nil {
		return nil, ErrLLMUnavailable
	}
	text := HTMLToText(raw)
	if text == "" {
		return nil, invalid("rawHtml required")
	}
	if r := []rune(text); len(r) > maxExtractionInput {
		text = string(r[:maxExtractionInput])
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(jobExtractionPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	var draft dtos.JobDraft
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}
	return &draft, nil
}

// stripCodeFence removes a markdown fence some models wrap JSON in despite
// being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "svg": true,
	"nav": true, "footer": true, "head": true, "iframe": true,
}

// HTMLToText returns the visible text of an HTML document, one block per
// line. Plain text passes through with its whitespace collapsed.
func HTMLToText(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}
	var lines []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current = current[:0]
		}
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			current = append(current, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			flush()
		}
	}
	walk(doc)
	flush()
	return strings.Join(lines, "\n")
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6",
		"section", "article", "tr", "table", "header", "main", "body":
		return true
	}
	return false
}
