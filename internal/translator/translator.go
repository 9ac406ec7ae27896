package translator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/queue"
	"ytproc/internal/services"
	"ytproc/internal/services/llm"
	"ytproc/internal/stage"
	"ytproc/internal/subtitles"
)

const systemPromptTemplate = `You are a professional subtitle translator. Translate each numbered line into %s.
Rules:
- Reply with the same numbered lines, one translation per line.
- Keep every number; never merge, reorder, or drop lines.
- Translate naturally and concisely for subtitles.
- Output nothing but the numbered translations.`

// completionService abstracts the LLM client for tests.
type completionService interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Translator implements the translation stage.
type Translator struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	service completionService
}

// New constructs the translation stage handler using default dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Translator {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.Translation.APIKey,
		BaseURL:        cfg.Translation.BaseURL,
		Model:          cfg.Translation.Model,
		TimeoutSeconds: cfg.Translation.TimeoutSeconds,
	})
	return NewWithDependencies(cfg, store, logger, client)
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, service completionService) *Translator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "translator"))
	}
	return &Translator{cfg: cfg, store: store, logger: stageLogger, service: service}
}

func (tr *Translator) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, tr.logger)
	if _, err := stage.RequireFile(item.SubtitleFile, "Subtitle file"); err != nil {
		return err
	}
	if item.TargetLang == "" {
		item.TargetLang = tr.cfg.Translation.TargetLang
	}
	tag, err := language.Parse(item.TargetLang)
	if err != nil {
		return services.Wrap(services.ErrValidation, "translating", "validate language",
			fmt.Sprintf("target language %q is not a valid BCP-47 tag", item.TargetLang), err)
	}
	item.TargetLang = tag.String()
	item.InitProgress("Translating", "Preparing translation")
	logger.Info("starting translation preparation",
		logging.String("subtitle_file", item.SubtitleFile),
		logging.String("target_lang", item.TargetLang))
	return nil
}

func (tr *Translator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, tr.logger)

	target := TranslatedPath(item.SubtitleFile, item.TargetLang)
	if _, err := os.Stat(target); err == nil {
		item.TranslatedSubtitleFile = target
		item.SetProgressComplete("Translating", "Reused existing translation")
		logger.Info("translated subtitles already present", logging.String("translated_file", target))
		return nil
	}

	cues, err := subtitles.ParseFile(item.SubtitleFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "translating", "parse srt", "Failed to parse source subtitles", err)
	}
	if len(cues) == 0 {
		return services.Wrap(services.ErrValidation, "translating", "inspect srt", "Source subtitle file has no cues", nil)
	}

	lines := make([]string, len(cues))
	for i, cue := range cues {
		lines[i] = strings.Join(strings.Fields(cue.Text), " ")
	}

	systemPrompt := fmt.Sprintf(systemPromptTemplate, languageName(item.TargetLang))
	batches := BuildBatches(lines, tr.cfg.Translation.MaxSegmentChars, tr.cfg.Translation.MaxSegmentLines)
	translated := make([]string, len(lines))
	logger.Info("starting translation",
		logging.Int("cues", len(cues)),
		logging.Int("batches", len(batches)))

	for i, batch := range batches {
		reply, err := tr.service.Complete(ctx, systemPrompt, batch.Format())
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "translating", "call llm",
				fmt.Sprintf("Translation batch %d/%d failed", i+1, len(batches)), err)
		}
		for j, text := range ParseNumbered(reply, len(batch.Lines)) {
			translated[batch.Offset+j] = text
		}
		percent := float64(i+1) / float64(len(batches)) * 90
		tr.updateProgress(ctx, item, fmt.Sprintf("Translated batch %d/%d", i+1, len(batches)), percent)
	}

	missing := 0
	out := make([]subtitles.Cue, len(cues))
	for i, cue := range cues {
		text := translated[i]
		if text == "" {
			missing++
			text = " "
		}
		out[i] = subtitles.Cue{Index: i + 1, Start: cue.Start, End: cue.End, Text: text}
	}
	if missing > 0 {
		logger.Warn("model dropped lines, left empty",
			logging.Int("missing", missing),
			logging.Int("total", len(cues)))
	}

	if err := subtitles.WriteFile(target, out); err != nil {
		return services.Wrap(services.ErrTransient, "translating", "write srt", "Failed to write translated subtitles", err)
	}

	item.TranslatedSubtitleFile = target
	item.SetProgressComplete("Translating", fmt.Sprintf("Translated %d cues", len(cues)))
	logger.Info("translation completed",
		logging.Int("cues", len(cues)),
		logging.String("translated_file", target))
	return nil
}

// HealthCheck verifies the translation provider is configured and, when the
// injected service supports it, that the provider answers a ping.
func (tr *Translator) HealthCheck(ctx context.Context) stage.Health {
	const name = "translator"
	if tr.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(tr.cfg.Translation.APIKey) == "" {
		return stage.Unhealthy(name, "translation API key not configured")
	}
	if _, err := language.Parse(tr.cfg.Translation.TargetLang); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("invalid target language %q", tr.cfg.Translation.TargetLang))
	}
	if pinger, ok := tr.service.(interface{ HealthCheck(context.Context) error }); ok {
		if err := pinger.HealthCheck(ctx); err != nil {
			return stage.Unhealthy(name, fmt.Sprintf("translation provider unreachable: %v", err))
		}
	}
	return stage.Healthy(name)
}

func (tr *Translator) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	if tr.store == nil {
		item.SetProgress("Translating", message, percent)
		return
	}
	logger := logging.WithContext(ctx, tr.logger)
	updated := *item
	updated.SetProgress("Translating", message, percent)
	if err := tr.store.Update(ctx, &updated); err != nil {
		logger.Warn("failed to persist translation progress", logging.Error(err))
		return
	}
	*item = updated
}

// TranslatedPath derives the output path for a translated SRT.
func TranslatedPath(subtitleFile, targetLang string) string {
	ext := filepath.Ext(subtitleFile)
	stem := strings.TrimSuffix(subtitleFile, ext)
	return fmt.Sprintf("%s_%s_translated%s", stem, targetLang, ext)
}

// languageName renders a BCP-47 tag as an English language name for prompts.
func languageName(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	base, _ := parsed.Base()
	switch base.String() {
	case "zh":
		return "Simplified Chinese"
	case "en":
		return "English"
	case "ja":
		return "Japanese"
	case "ko":
		return "Korean"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "de":
		return "German"
	default:
		return tag
	}
}
