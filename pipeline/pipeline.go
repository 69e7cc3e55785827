package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/HanbitLabs/novlate"
	"github.com/HanbitLabs/novlate/backend"
	"github.com/HanbitLabs/novlate/cache"
	"github.com/HanbitLabs/novlate/glossary"
	"github.com/HanbitLabs/novlate/ingest"
	"github.com/HanbitLabs/novlate/qa"
	"github.com/HanbitLabs/novlate/splitter"
)

// Pipeline runs localization stages for one configured series.
type Pipeline struct {
	cfg     *Config
	store   *Store
	backend novlate.Backend
	cache   cache.TranslationCache
	mem     *cache.InMemoryCache // set when the cache is snapshot-persisted
	logger  *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBackend replaces the configured OpenAI backend, e.g. with a mock.
func WithBackend(b novlate.Backend) PipelineOption {
	return func(p *Pipeline) { p.backend = b }
}

// WithCache replaces the configured translation cache.
func WithCache(c cache.TranslationCache) PipelineOption {
	return func(p *Pipeline) {
		p.cache = c
		p.mem = nil
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// New opens the workspace and state database and wires the backend and cache
// from configuration.
func New(cfg *Config, opts ...PipelineOption) (*Pipeline, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.backend == nil {
		base := backend.NewOpenAIBackend(backend.OpenAIConfig{
			APIKey:      cfg.Backend.APIKey,
			Model:       cfg.Backend.Model,
			BaseURL:     cfg.Backend.BaseURL,
			Temperature: float32(cfg.Backend.Temperature),
		})
		interval := time.Duration(cfg.Backend.RateIntervalSeconds * float64(time.Second))
		limited := novlate.NewRateLimitedBackend(base, novlate.NewIntervalLimiter(interval))
		retryCfg := novlate.DefaultRetryConfig()
		retryCfg.MaxRetries = cfg.Backend.MaxRetries
		p.backend = novlate.NewRetryableBackend(limited, retryCfg)
	}

	if p.cache == nil && cfg.Cache.Enabled {
		if cfg.Cache.RedisURL != "" {
			rc, err := cache.NewRedisCache(cache.RedisConfig{
				URL: cfg.Cache.RedisURL,
				TTL: cfg.Cache.TTLSeconds,
			})
			if err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("connect redis cache: %w", err)
			}
			p.cache = rc
		} else {
			mem := cache.NewInMemoryCache(cfg.Cache.TTLSeconds)
			if result, err := cache.RestoreFromFile(mem, cfg.SnapshotPath()); err != nil {
				p.logger.Warn("cache snapshot unreadable, starting cold",
					"path", cfg.SnapshotPath(), "error", err)
			} else if result.Imported > 0 {
				p.logger.Info("cache snapshot restored", "entries", result.Imported)
			}
			p.cache = mem
			p.mem = mem
		}
	}

	return p, nil
}

// Close persists the cache snapshot if needed and releases resources.
func (p *Pipeline) Close() error {
	if p.mem != nil {
		if err := cache.SnapshotToFile(p.mem, p.cfg.SnapshotPath(), map[string]string{
			"series": p.cfg.Series.Name,
		}); err != nil {
			p.logger.Warn("cache snapshot not written", "error", err)
		}
	}
	if closer, ok := p.cache.(*cache.RedisCache); ok {
		_ = closer.Close()
	}
	return p.store.Close()
}

// StageResult summarizes one stage run.
type StageResult struct {
	RunID      string    `json:"run_id"`
	Series     string    `json:"series"`
	Stage      string    `json:"stage"`
	Language   string    `json:"language,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Warnings   []string  `json:"warnings,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
}

func (p *Pipeline) beginStage(ctx context.Context, stage, language string) *StageResult {
	res := &StageResult{
		RunID:     uuid.NewString(),
		Series:    p.cfg.Series.Name,
		Stage:     stage,
		Language:  language,
		StartedAt: time.Now().UTC(),
	}
	if err := p.store.BeginRun(ctx, res.RunID, res.Series, stage, language); err != nil {
		p.logger.Warn("run not recorded", "stage", stage, "error", err)
	}
	return res
}

func (p *Pipeline) finishStage(ctx context.Context, res *StageResult) {
	res.FinishedAt = time.Now().UTC()
	if err := p.store.FinishRun(ctx, res.RunID, res.Succeeded, res.Failed); err != nil {
		p.logger.Warn("run outcome not recorded", "stage", res.Stage, "error", err)
	}
	if err := p.writeStageReport(res); err != nil {
		p.logger.Warn("stage report not written", "stage", res.Stage, "error", err)
	}
}

// RunSplit ingests a manuscript, splits it into episodes, and registers them
// in the state database.
func (p *Pipeline) RunSplit(ctx context.Context, manuscriptPath string) (*StageResult, error) {
	res := p.beginStage(ctx, StageSplit, "")
	defer p.finishStage(ctx, res)

	text, err := ingest.FromFile(manuscriptPath)
	if err != nil {
		return res, err
	}

	sp := splitter.New(p.backend,
		splitter.WithSampleLines(p.cfg.Split.SampleLines),
		splitter.WithLogger(p.logger),
	)
	split, err := sp.Split(ctx, text, filepath.Base(manuscriptPath))
	if err != nil {
		return res, err
	}

	res.Warnings = append(res.Warnings, split.Warnings...)
	p.logger.Info("manuscript split",
		"episodes", len(split.Episodes),
		"method", split.Method,
		"pattern", split.PatternUsed,
		"confidence", split.Confidence)

	series := p.cfg.Series.Name
	for _, ep := range split.Episodes {
		if err := os.WriteFile(p.episodePath(ep.Number), []byte(ep.Content), 0o644); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("episode %d: %v", ep.Number, err))
			p.markStage(ctx, ep.Number, StageSplit, "", StatusFailed, err.Error())
			continue
		}
		if err := p.store.UpsertEpisode(ctx, series, ep.Number, ep.Title, novlate.HashText(ep.Content)); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("episode %d: %v", ep.Number, err))
			continue
		}
		p.markStage(ctx, ep.Number, StageSplit, "", StatusDone, "")
		res.Succeeded++
	}
	return res, nil
}

// RunGlossary builds or extends the glossary for one target language:
// reviewer CSV sync, term extraction, per-term translation, then a
// consistency enforcement pass.
func (p *Pipeline) RunGlossary(ctx context.Context, targetLang string) (*StageResult, error) {
	targetLang = novlate.NormalizeLanguage(targetLang)
	res := p.beginStage(ctx, StageGlossary, targetLang)
	defer p.finishStage(ctx, res)

	g, err := p.loadOrCreateGlossary(targetLang)
	if err != nil {
		return res, err
	}
	g.SetLogger(p.logger)

	if warn := p.syncReviewCSV(g, targetLang); warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}

	text, err := p.seriesText(ctx)
	if err != nil {
		return res, err
	}

	candidates, err := p.backend.ExtractTerms(ctx, novlate.ExtractTermsRequest{
		Text:           text,
		SourceLanguage: p.cfg.Series.SourceLanguage,
	})
	if err != nil {
		return res, err
	}

	fresh := g.FilterNew(candidates)
	p.logger.Info("glossary candidates extracted",
		"total", len(candidates), "new", len(fresh), "language", targetLang)

	for _, c := range fresh {
		translation, err := p.backend.TranslateTerm(ctx, novlate.TranslateTermRequest{
			Term:           c.Original,
			SourceLanguage: p.cfg.Series.SourceLanguage,
			TargetLanguage: targetLang,
			Category:       c.Category,
			Context:        c.Context,
		})
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("term %q: %v", c.Original, err))
			continue
		}
		if limit := glossary.TermLengthCeiling(c.Category); len([]rune(translation)) > limit {
			err := &novlate.TermTooLongError{Term: c.Original, Length: len([]rune(translation)), Limit: limit}
			res.Failed++
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		g.Add(glossary.Term{
			Original:    c.Original,
			Translation: translation,
			Category:    c.Category,
			Context:     c.Context,
		})
		res.Succeeded++
	}

	enforcer := glossary.NewEnforcer(glossary.WithEnforcerLogger(p.logger))
	corrected, corrections := enforcer.Enforce(g.Terms, targetLang)
	g.ReplaceTerms(corrected)
	if len(corrections) > 0 {
		p.logger.Info("name consistency corrections applied",
			"count", len(corrections), "language", targetLang)
		if err := writeJSON(p.cfg.CorrectionsPath(targetLang), corrections); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("correction log not written: %v", err))
		}
	}

	if err := g.Save(p.cfg.GlossaryPath(targetLang)); err != nil {
		return res, err
	}
	if err := p.writeReviewCSV(g, targetLang); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("review CSV not written: %v", err))
	}
	return res, nil
}

// RunTranslate translates every pending episode for a target language,
// consulting the cache and running the QA fix loop on each result.
func (p *Pipeline) RunTranslate(ctx context.Context, targetLang string) (*StageResult, error) {
	targetLang = novlate.NormalizeLanguage(targetLang)
	res := p.beginStage(ctx, StageTranslate, targetLang)
	defer p.finishStage(ctx, res)

	g, err := glossary.Load(p.cfg.GlossaryPath(targetLang))
	if err != nil {
		return res, fmt.Errorf("glossary required before translation: %w", err)
	}
	glossaryBlock := g.FormatForPrompt()
	validator := qa.NewValidator(p.cfg.Series.SourceLanguage, targetLang, g,
		qa.WithValidatorLogger(p.logger))

	pending, err := p.store.PendingEpisodes(ctx, p.cfg.Series.Name, StageTranslate, targetLang)
	if err != nil {
		return res, err
	}

	for _, rec := range pending {
		content, err := os.ReadFile(p.episodePath(rec.Number))
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("episode %d: %v", rec.Number, err))
			p.markStage(ctx, rec.Number, StageTranslate, targetLang, StatusFailed, err.Error())
			continue
		}
		source := string(content)

		translation, hit := cache.Lookup(p.cache, source,
			p.cfg.Series.SourceLanguage, targetLang, p.cfg.Backend.Model)
		if !hit {
			translation, err = p.backend.TranslateEpisode(ctx, novlate.TranslateEpisodeRequest{
				Text:           source,
				SourceLanguage: p.cfg.Series.SourceLanguage,
				TargetLanguage: targetLang,
				Glossary:       glossaryBlock,
			})
			if err != nil {
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("episode %d: %v", rec.Number, err))
				p.markStage(ctx, rec.Number, StageTranslate, targetLang, StatusFailed, err.Error())
				continue
			}
		}

		fixed, check := validator.FixLoop(ctx, translation, rec.Number,
			p.cfg.QA.MaxFixRetries, p.backend)
		if !check.Passed {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("episode %d: %d unresolved issues after fixes", rec.Number, len(check.Issues)))
		}

		if err := cache.Store(p.cache, source,
			p.cfg.Series.SourceLanguage, targetLang, p.cfg.Backend.Model, fixed); err != nil {
			p.logger.Warn("translation not cached", "episode", rec.Number, "error", err)
		}
		if err := os.WriteFile(p.translationPath(targetLang, rec.Number), []byte(fixed), 0o644); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("episode %d: %v", rec.Number, err))
			p.markStage(ctx, rec.Number, StageTranslate, targetLang, StatusFailed, err.Error())
			continue
		}
		p.markStage(ctx, rec.Number, StageTranslate, targetLang, StatusDone, "")
		res.Succeeded++
	}
	return res, nil
}

// RunQA re-validates every translated episode for a target language and
// writes the aggregate report.
func (p *Pipeline) RunQA(ctx context.Context, targetLang string) (*StageResult, error) {
	targetLang = novlate.NormalizeLanguage(targetLang)
	res := p.beginStage(ctx, StageQA, targetLang)
	defer p.finishStage(ctx, res)

	g, err := glossary.Load(p.cfg.GlossaryPath(targetLang))
	if err != nil {
		return res, fmt.Errorf("glossary required for QA: %w", err)
	}
	validator := qa.NewValidator(p.cfg.Series.SourceLanguage, targetLang, g,
		qa.WithValidatorLogger(p.logger))
	report := qa.NewReport(p.cfg.Series.Name, p.cfg.Series.SourceLanguage, targetLang)

	episodes, err := p.store.Episodes(ctx, p.cfg.Series.Name)
	if err != nil {
		return res, err
	}

	for _, rec := range episodes {
		content, err := os.ReadFile(p.translationPath(targetLang, rec.Number))
		if err != nil {
			if os.IsNotExist(err) {
				continue // not yet translated
			}
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("episode %d: %v", rec.Number, err))
			continue
		}

		result := validator.Validate(string(content), rec.Number)
		report.Add(result)
		if result.Passed {
			p.markStage(ctx, rec.Number, StageQA, targetLang, StatusDone, "")
			res.Succeeded++
		} else {
			p.markStage(ctx, rec.Number, StageQA, targetLang, StatusFailed,
				fmt.Sprintf("%d errors", result.ErrorCount()))
			res.Failed++
		}
	}

	if err := p.writeQAReport(report, targetLang); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("QA report not written: %v", err))
	}
	return res, nil
}

// RunAll executes the full pipeline: split (when a manuscript is given), then
// glossary, translate, and QA for every configured target language. A failed
// language does not stop the others.
func (p *Pipeline) RunAll(ctx context.Context, manuscriptPath string) ([]*StageResult, error) {
	var results []*StageResult
	var firstErr error

	record := func(res *StageResult, err error) bool {
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			p.logger.Error("stage failed", "stage", res.Stage, "language", res.Language, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			return false
		}
		return true
	}

	if manuscriptPath != "" {
		res, err := p.RunSplit(ctx, manuscriptPath)
		if !record(res, err) {
			return results, firstErr
		}
	}

	for _, lang := range p.cfg.Series.TargetLanguages {
		res, err := p.RunGlossary(ctx, lang)
		if !record(res, err) {
			continue
		}
		res, err = p.RunTranslate(ctx, lang)
		if !record(res, err) {
			continue
		}
		record(p.RunQA(ctx, lang))
	}
	return results, firstErr
}

// seriesText concatenates all split episodes with boundary markers, the input
// for term extraction.
func (p *Pipeline) seriesText(ctx context.Context) (string, error) {
	episodes, err := p.store.Episodes(ctx, p.cfg.Series.Name)
	if err != nil {
		return "", err
	}
	if len(episodes) == 0 {
		return "", &novlate.GlossaryError{Message: "no episodes registered; run split first"}
	}

	var sb []byte
	for _, rec := range episodes {
		content, err := os.ReadFile(p.episodePath(rec.Number))
		if err != nil {
			return "", fmt.Errorf("episode %d: %w", rec.Number, err)
		}
		sb = append(sb, []byte(fmt.Sprintf("=== Episode %d ===\n", rec.Number))...)
		sb = append(sb, content...)
		sb = append(sb, '\n', '\n')
	}
	return string(sb), nil
}

func (p *Pipeline) loadOrCreateGlossary(targetLang string) (*glossary.Glossary, error) {
	path := p.cfg.GlossaryPath(targetLang)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return glossary.New(p.cfg.Series.Name, p.cfg.Series.SourceLanguage, targetLang), nil
	}
	return glossary.Load(path)
}

// syncReviewCSV folds reviewer edits from the CSV checkpoint back into the
// glossary. Returns a warning string on problems; review sync never fails the
// stage.
func (p *Pipeline) syncReviewCSV(g *glossary.Glossary, targetLang string) string {
	path := p.cfg.GlossaryCSVPath(targetLang)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		return fmt.Sprintf("review CSV unreadable: %v", err)
	}
	defer f.Close()

	reviewed, err := glossary.ReadCSV(f)
	if err != nil {
		return fmt.Sprintf("review CSV unparseable: %v", err)
	}

	changed := 0
	for _, term := range reviewed {
		term := term
		if g.Update(term.Original, func(t *glossary.Term) {
			if t.Translation != term.Translation || t.Context != term.Context || t.Category != term.Category {
				changed++
			}
			t.Translation = term.Translation
			t.Context = term.Context
			t.Category = term.Category
		}) {
			continue
		}
		g.Add(term)
		changed++
	}
	if changed > 0 {
		p.logger.Info("reviewer CSV edits applied", "changed", changed, "language", targetLang)
	}
	return ""
}

func (p *Pipeline) writeReviewCSV(g *glossary.Glossary, targetLang string) error {
	f, err := os.Create(p.cfg.GlossaryCSVPath(targetLang))
	if err != nil {
		return err
	}
	defer f.Close()
	return g.WriteCSV(f)
}

func (p *Pipeline) markStage(ctx context.Context, number int, stage, language, status, errMsg string) {
	if err := p.store.MarkStage(ctx, p.cfg.Series.Name, number, stage, language, status, errMsg); err != nil {
		p.logger.Warn("stage status not recorded",
			"episode", number, "stage", stage, "error", err)
	}
}

func episodeFileName(number int) string {
	return fmt.Sprintf("%03d.txt", number)
}

func (p *Pipeline) episodePath(number int) string {
	return filepath.Join(p.cfg.EpisodesDir(), episodeFileName(number))
}

func (p *Pipeline) translationPath(lang string, number int) string {
	return filepath.Join(p.cfg.TranslationsDir(lang), episodeFileName(number))
}
