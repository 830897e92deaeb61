package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

//go:embed data
var embedded embed.FS

var (
	// ErrUnknownLanguage is returned for a language the catalog does not carry
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrInconsistentCatalog is returned when language variants disagree on question structure
	ErrInconsistentCatalog = errors.New("inconsistent catalog")
)

// Catalog holds the per-language questions and translation strings
type Catalog struct {
	mu     sync.RWMutex
	langs  map[models.Language]*languageData
	source string
}

type languageData struct {
	domains   []domainFile
	questions []models.Question
	messages  map[string]string
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{langs: make(map[models.Language]*languageData)}
}

// NewDefault creates a catalog populated from the data compiled into the binary
func NewDefault() (*Catalog, error) {
	c := New()
	if err := c.LoadEmbedded(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadEmbedded replaces the catalog contents with the built-in data
func (c *Catalog) LoadEmbedded() error {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return fmt.Errorf("failed to open embedded catalog: %w", err)
	}
	return c.load(sub, "embedded")
}

// LoadFromDir replaces the catalog contents with the data found under dir.
// Each language lives in its own directory holding questions.yaml and strings.yaml.
func (c *Catalog) LoadFromDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to stat catalog dir: %w", err)
	}
	return c.load(os.DirFS(dir), dir)
}

// Source returns where the current contents were loaded from
func (c *Catalog) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// load parses every language found in fsys and swaps it in only if the result is consistent
func (c *Catalog) load(fsys fs.FS, source string) error {
	slog.Info("loading catalog", "source", source)

	files, err := doublestar.Glob(fsys, "**/questions.{yaml,yml}")
	if err != nil {
		return fmt.Errorf("failed to glob catalog: %w", err)
	}

	langs := make(map[models.Language]*languageData)
	for _, file := range files {
		dir := path.Dir(file)
		lang := models.Language(path.Base(dir))
		if !lang.IsValid() {
			slog.Warn("skipping catalog for unsupported language", "file", file)
			continue
		}

		data, err := loadLanguage(fsys, file, dir)
		if err != nil {
			return fmt.Errorf("language %s: %w", lang, err)
		}
		langs[lang] = data
	}

	if err := validate(langs); err != nil {
		return err
	}

	c.mu.Lock()
	c.langs = langs
	c.source = source
	c.mu.Unlock()

	slog.Info("catalog loaded",
		"source", source,
		"languages", len(langs),
		"questions", len(langs[models.DefaultLanguage].questions),
	)
	return nil
}

func loadLanguage(fsys fs.FS, questionsPath, dir string) (*languageData, error) {
	raw, err := fs.ReadFile(fsys, questionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var qf questionsFile
	if err := yaml.Unmarshal(raw, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	data := &languageData{
		domains:   qf.Domains,
		questions: make([]models.Question, 0, len(qf.Questions)),
		messages:  make(map[string]string),
	}

	seen := make(map[string]bool)
	for _, q := range qf.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question id is required")
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true

		question := models.Question{ID: q.ID, Domain: q.Domain, Text: q.Text}
		values := make(map[string]bool)
		for _, o := range q.Options {
			if values[o.Value] {
				return nil, fmt.Errorf("question %s: duplicate option value %q", q.ID, o.Value)
			}
			if o.Points < 0 {
				return nil, fmt.Errorf("question %s: option %q has negative points", q.ID, o.Value)
			}
			values[o.Value] = true
			question.Options = append(question.Options, models.Option{
				Value:         o.Value,
				Label:         o.Label,
				Points:        o.Points,
				ReportContext: strings.TrimSpace(o.ReportContext),
			})
		}
		if len(question.Options) == 0 {
			return nil, fmt.Errorf("question %s has no options", q.ID)
		}
		data.questions = append(data.questions, question)
	}

	for _, name := range []string{"strings.yaml", "strings.yml"} {
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read strings: %w", err)
		}

		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse strings YAML: %w", err)
		}
		flatten("", tree, data.messages)
		break
	}

	return data, nil
}

// flatten turns nested YAML maps into dotted keys ("pdfLabels.name")
func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// validate enforces that every supported language is present and mirrors the default
// language's question structure
func validate(langs map[models.Language]*languageData) error {
	base, ok := langs[models.DefaultLanguage]
	if !ok {
		return fmt.Errorf("%w: default language %q missing", ErrInconsistentCatalog, models.DefaultLanguage)
	}

	for lang, data := range langs {
		if lang == models.DefaultLanguage {
			continue
		}
		if len(data.questions) != len(base.questions) {
			return fmt.Errorf("%w: %s has %d questions, %s has %d",
				ErrInconsistentCatalog, lang, len(data.questions), models.DefaultLanguage, len(base.questions))
		}
		for i, q := range data.questions {
			bq := base.questions[i]
			if q.ID != bq.ID || q.Domain != bq.Domain {
				return fmt.Errorf("%w: %s question %d is %s/%s, want %s/%s",
					ErrInconsistentCatalog, lang, i, q.ID, q.Domain, bq.ID, bq.Domain)
			}
			if len(q.Options) != len(bq.Options) {
				return fmt.Errorf("%w: %s question %s option count differs", ErrInconsistentCatalog, lang, q.ID)
			}
			for j, o := range q.Options {
				if o.Value != bq.Options[j].Value || o.Points != bq.Options[j].Points {
					return fmt.Errorf("%w: %s question %s option %d differs in value or points",
						ErrInconsistentCatalog, lang, q.ID, j)
				}
			}
		}
	}

	for _, lang := range models.SupportedLanguages {
		if _, ok := langs[lang]; !ok {
			return fmt.Errorf("%w: language %q missing", ErrInconsistentCatalog, lang)
		}
	}
	return nil
}

// Languages returns the loaded languages in display order
func (c *Catalog) Languages() []models.Language {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.Language, 0, len(c.langs))
	for _, lang := range models.SupportedLanguages {
		if _, ok := c.langs[lang]; ok {
			result = append(result, lang)
		}
	}
	return result
}

// Questions returns the ordered questions of a language, filtered to the given domains.
// An empty domain list selects every domain.
func (c *Catalog) Questions(lang models.Language, domains []string) ([]models.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.langs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}

	active := make(map[string]bool, len(domains))
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			active[d] = true
		}
	}

	result := make([]models.Question, 0, len(data.questions))
	for _, q := range data.questions {
		if len(active) > 0 && !active[q.Domain] {
			continue
		}
		result = append(result, q)
	}
	return result, nil
}

// Domains returns the readiness dimensions of a language with their question counts
func (c *Catalog) Domains(lang models.Language) ([]models.Domain, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.langs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}

	result := make([]models.Domain, 0, len(data.domains))
	for _, d := range data.domains {
		domain := models.Domain{ID: d.ID, Name: d.Name}
		for i := range data.questions {
			if data.questions[i].Domain == d.ID {
				domain.QuestionCount++
				domain.MaxPoints += data.questions[i].MaxPoints()
			}
		}
		result = append(result, domain)
	}
	return result, nil
}

// Bundle returns the translation bundle of a language with default-language fallback.
// An unknown language yields the default language bundle.
func (c *Catalog) Bundle(lang models.Language) *Bundle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var fallback map[string]string
	if base, ok := c.langs[models.DefaultLanguage]; ok {
		fallback = base.messages
	}

	data, ok := c.langs[lang]
	if !ok {
		return &Bundle{Language: models.DefaultLanguage, messages: fallback}
	}
	return &Bundle{Language: lang, messages: data.messages, fallback: fallback}
}
