package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength     = 200
	defaultTone             = "Professional"
	maxUserInstructionRunes = 500
	maxQuestionRunes        = 1000
)

// PromptOverrides customizes the system prompt.
type PromptOverrides struct {
	Tone             string
	UserInstructions string
}

// Assistant answers recruiter questions with Gemini.
type Assistant struct {
	generator contentGenerator
	overrides PromptOverrides
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Assistant = (*Assistant)(nil)

func NewAssistant(generator contentGenerator, maxLogLength int, log *zap.Logger) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Assistant{
		generator: generator,
		logger:    logger.WithCommonFields(log, "gemini", generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (a *Assistant) SetPromptOverrides(overrides PromptOverrides) {
	a.overrides = overrides
}

func (a *Assistant) Ask(ctx context.Context, question string, dashboard *ai.Context) (*ai.Answer, error) {
	question = sanitizeLine(question, maxQuestionRunes)
	if question == "" {
		return nil, errors.New("question must not be empty")
	}
	if dashboard == nil {
		dashboard = ai.NewContext(nil, nil, nil)
	}

	dashboardJSON, err := json.MarshalIndent(dashboard, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal dashboard: %w", err)
	}

	system := buildPrompt(a.overrides)
	message := fmt.Sprintf("[Inputs]\nDashboard:\n%s\n\n[Question]\n%s", dashboardJSON, question)

	a.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(system)+utf8.RuneCountInString(message)),
		zap.String("question", utils.TruncateForLog(question, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	answer := parseResponse(raw)
	answer.Suggestions = ai.Suggestions(dashboard)
	return answer, nil
}

func buildPrompt(overrides PromptOverrides) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Tone: {{TONE}}\nUser instructions:\n{{USER_INSTRUCTIONS}}\n"
	}

	tone := sanitizeLine(overrides.Tone, maxUserInstructionRunes)
	if tone == "" {
		tone = defaultTone
	}

	prompt := strings.ReplaceAll(template, "{{TONE}}", tone)
	return strings.ReplaceAll(prompt, "{{USER_INSTRUCTIONS}}", sanitizeBlock(overrides.UserInstructions))
}

// sanitizeLine collapses whitespace, replaces square brackets so the value cannot
// open a prompt section and truncates it to limit runes.
func sanitizeLine(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	value = strings.NewReplacer("[", "(", "]", ")").Replace(value)
	if runes := []rune(value); len(runes) > limit {
		value = string(runes[:limit])
	}
	return value
}

// sanitizeBlock renders multi-line instructions as an indented list.
func sanitizeBlock(value string) string {
	var lines []string
	remaining := maxUserInstructionRunes
	for _, line := range strings.Split(value, "\n") {
		line = sanitizeLine(line, remaining)
		if line == "" {
			continue
		}
		remaining -= utf8.RuneCountInString(line)
		lines = append(lines, "  - "+line)
		if remaining <= 0 {
			break
		}
	}
	if len(lines) == 0 {
		return "  - none"
	}
	return strings.Join(lines, "\n")
}

// parseResponse reads the JSON reply. A reply that is not JSON is used as the
// answer text.
func parseResponse(raw string) *ai.Answer {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return &ai.Answer{Text: strings.TrimSpace(raw)}
	}

	answer := &ai.Answer{Text: coerceString(data["answer"])}
	if answer.Text == "" {
		answer.Text = strings.TrimSpace(raw)
	}
	if items, ok := data["recommendations"].([]any); ok {
		for _, item := range items {
			if text := coerceString(item); text != "" {
				answer.Recommendations = append(answer.Recommendations, text)
			}
		}
	}
	return answer
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
