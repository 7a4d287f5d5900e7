package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/yungbote/affirmpost-backend/internal/clients/openai"
	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
	"github.com/yungbote/affirmpost-backend/internal/pkg/env"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

// Themes the generator draws from. Theme-specific hashtags strip the hyphen
// (Self-Love posts as #SelfLove).
var themeVocabulary = []string{
	"Self-Love",
	"Abundance",
	"Growth",
	"Confidence",
	"Peace",
	"Gratitude",
	"Resilience",
	"Joy",
}

const standardHashtags = "#Affirmations #DailyAffirmations #PositiveAffirmations #SelfLove #SelfCare #PositiveVibes #Motivation #Mindset #Gratitude #Positivity #Healing #Manifestation #Inspiration #Mindfulness #AffirmationOfTheDay #affirmationjournal"

const fallbackCaption = "Start your day with positive affirmations! 🌟"

// Used whenever the model call fails or returns nothing usable. The first
// count entries are taken, so callers asking for fewer than six still get a
// full set.
var fallbackPhrases = []string{
	"I am worthy of love",
	"I trust my journey",
	"I embrace my power",
	"I choose happiness",
	"I am enough",
	"I create my joy",
}

// ContentService produces the text side of a post: a theme, a set of
// affirmation phrases and a ready-to-publish caption. Every method degrades
// to a deterministic fallback instead of failing the pipeline.
type ContentService interface {
	ChooseTheme(ctx context.Context) string
	GenerateAffirmations(ctx context.Context, theme string, count int, maxLen int) []string
	GenerateCaption(ctx context.Context, theme string, phrases []string) string
}

type contentService struct {
	log    *logger.Logger
	openai openai.Client
	randFn func(n int) int

	themeFromModel bool
}

func NewContentService(log *logger.Logger, ai openai.Client) (ContentService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("OpenAI client required")
	}
	return &contentService{
		log:            log.With("service", "ContentService"),
		openai:         ai,
		randFn:         rand.Intn,
		themeFromModel: env.GetBool("THEME_FROM_MODEL", false, log),
	}, nil
}

const themePrompt = `Generate a single word theme for daily affirmations. The theme should be:
1. Positive and uplifting
2. Universal and relatable
3. Simple and clear
4. Suitable for personal development

Examples: Growth, Courage, Peace, Joy, Strength, Balance, Wisdom, Love, Hope, Power

Return just the single word theme.`

// ChooseTheme picks from the fixed vocabulary, or asks the model for a
// single word when THEME_FROM_MODEL is set. The model path falls back to the
// vocabulary whenever the answer is unusable.
func (s *contentService) ChooseTheme(ctx context.Context) string {
	if s.themeFromModel {
		ctx = ctxutil.Default(ctx)
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		theme, err := s.openai.GenerateText(ctx, "You are a professional content creator.", themePrompt)
		if err != nil {
			s.log.Warn("theme generation failed, using vocabulary", "error", err)
		} else if theme = strings.TrimSpace(theme); theme != "" && !strings.ContainsAny(theme, " \n\t") {
			return theme
		}
	}
	return themeVocabulary[s.randFn(len(themeVocabulary))]
}

var affirmationsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"affirmations": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required":             []string{"affirmations"},
	"additionalProperties": false,
}

func (s *contentService) GenerateAffirmations(ctx context.Context, theme string, count int, maxLen int) []string {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	prompt := affirmationsPrompt(theme, count, maxLen)
	out, err := s.openai.GenerateJSON(ctx,
		"You are an expert at creating short, powerful affirmations. Respond with ONLY valid JSON.",
		prompt, "affirmation_set", affirmationsSchema)
	if err != nil {
		s.log.Error("affirmation generation failed, using fallback set", "theme", theme, "error", err)
		return fallbackSet(count)
	}

	raw, _ := out["affirmations"].([]any)
	phrases := make([]string, 0, len(raw))
	for _, v := range raw {
		p, ok := v.(string)
		if !ok {
			continue
		}
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if maxLen > 0 {
			if r := []rune(p); len(r) > maxLen {
				trimmed := strings.TrimSpace(string(r[:maxLen]))
				s.log.Warn("truncated over-long affirmation", "theme", theme, "original", p, "truncated", trimmed)
				p = trimmed
			}
		}
		phrases = append(phrases, p)
	}
	if len(phrases) == 0 {
		s.log.Error("model returned no usable affirmations, using fallback set", "theme", theme)
		return fallbackSet(count)
	}
	if len(phrases) > count {
		phrases = phrases[:count]
	}
	return phrases
}

func (s *contentService) GenerateCaption(ctx context.Context, theme string, phrases []string) string {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`Create a short, engaging caption for these affirmations:

%s

The caption should:
1. Be 1-2 sentences
2. Be positive and uplifting
3. Encourage engagement
4. Be under 200 characters

Respond with ONLY the caption text, no additional formatting or explanation.`, strings.Join(phrases, "\n"))

	caption, err := s.openai.GenerateText(ctx,
		"You are an expert at creating engaging social media captions. Respond with ONLY the caption text.",
		prompt)
	if err != nil || strings.TrimSpace(caption) == "" {
		if err != nil {
			s.log.Error("caption generation failed, using fallback caption", "theme", theme, "error", err)
		}
		caption = fallbackCaption
	}
	caption = strings.TrimSpace(caption)

	// The posted caption always carries the affirmations themselves so the
	// post stands alone even when the media fails to load in a client.
	themeHashtag := "#" + strings.ReplaceAll(theme, "-", "")
	parts := []string{caption}
	if len(phrases) > 0 {
		parts = append(parts, strings.Join(phrases, "\n"))
	}
	parts = append(parts, standardHashtags+"\n"+themeHashtag)
	return strings.Join(parts, "\n\n")
}

// BuildSet runs the full text generation for a post.
func BuildSet(ctx context.Context, content ContentService, count int, maxLen int) domain.AffirmationSet {
	theme := content.ChooseTheme(ctx)
	phrases := content.GenerateAffirmations(ctx, theme, count, maxLen)
	caption := content.GenerateCaption(ctx, theme, phrases)
	return domain.AffirmationSet{Theme: theme, Phrases: phrases, Caption: caption}
}

func affirmationsPrompt(theme string, count int, maxLen int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d affirmations about %s. Each affirmation must:\n", count, theme)
	rule := 1
	if maxLen > 0 {
		fmt.Fprintf(&b, "%d. Be a maximum of %d characters (including spaces)\n", rule, maxLen)
		rule++
	}
	fmt.Fprintf(&b, "%d. Start with \"I\" and be in present tense\n", rule)
	fmt.Fprintf(&b, "%d. Be personal and positive\n", rule+1)
	fmt.Fprintf(&b, "%d. Be easy to read quickly in a video\n", rule+2)
	fmt.Fprintf(&b, "%d. Not use the word \"%s\" directly\n", rule+3, theme)
	b.WriteString(`
Example affirmations for different themes:
- For "Confidence": "I trust my inner wisdom"
- For "Abundance": "I attract prosperity daily"
- For "Self-Love": "I honor my worth always"
`)
	return b.String()
}

func fallbackSet(count int) []string {
	if count >= len(fallbackPhrases) {
		out := make([]string, len(fallbackPhrases))
		copy(out, fallbackPhrases)
		return out
	}
	out := make([]string, count)
	copy(out, fallbackPhrases[:count])
	return out
}
