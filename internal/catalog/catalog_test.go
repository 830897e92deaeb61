package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}

	langs := c.Languages()
	if len(langs) != 3 {
		t.Fatalf("expected 3 languages, got %v", langs)
	}

	en, err := c.Questions(models.LanguageEnglish, nil)
	if err != nil {
		t.Fatalf("Questions(en) failed: %v", err)
	}
	ar, err := c.Questions(models.LanguageArabic, nil)
	if err != nil {
		t.Fatalf("Questions(ar) failed: %v", err)
	}
	if len(en) != len(ar) {
		t.Fatalf("question count differs: en=%d ar=%d", len(en), len(ar))
	}

	total := 0
	for i := range en {
		if en[i].ID != ar[i].ID {
			t.Errorf("question %d id differs: %s vs %s", i, en[i].ID, ar[i].ID)
		}
		if en[i].Text == ar[i].Text {
			t.Errorf("question %s text should be translated", en[i].ID)
		}
		total += en[i].MaxPoints()
	}
	if total != 100 {
		t.Errorf("expected maximum score 100, got %d", total)
	}
}

func TestQuestionsDomainFilter(t *testing.T) {
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}

	qs, err := c.Questions(models.LanguageEnglish, []string{"governance", " finance "})
	if err != nil {
		t.Fatalf("Questions failed: %v", err)
	}
	if len(qs) != 4 {
		t.Fatalf("expected 4 governance+finance questions, got %d", len(qs))
	}
	for _, q := range qs {
		if q.Domain != "governance" && q.Domain != "finance" {
			t.Errorf("unexpected domain %q", q.Domain)
		}
	}

	if _, err := c.Questions(models.Language("de"), nil); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestDomains(t *testing.T) {
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}

	domains, err := c.Domains(models.LanguageFrench)
	if err != nil {
		t.Fatalf("Domains failed: %v", err)
	}

	want := map[string]int{"market": 30, "strategy": 25, "governance": 20, "measurement": 15, "finance": 10}
	if len(domains) != len(want) {
		t.Fatalf("expected %d domains, got %d", len(want), len(domains))
	}
	for _, d := range domains {
		if d.MaxPoints != want[d.ID] {
			t.Errorf("domain %s max points = %d, want %d", d.ID, d.MaxPoints, want[d.ID])
		}
	}
}

func TestBundleResolveFallback(t *testing.T) {
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}

	ar := c.Bundle(models.LanguageArabic)
	if got := ar.Resolve("resultTexts.advanced"); got != "جاهزية متقدمة لأرصدة الكربون" {
		t.Errorf("unexpected arabic result text: %q", got)
	}

	// organization is only defined in the default language
	if got := ar.Resolve(KeyOrganization); got != "RSM SAUDI ARABIA" {
		t.Errorf("expected default-language fallback, got %q", got)
	}

	if got := ar.Resolve("no.such.key"); got != "no.such.key" {
		t.Errorf("expected key echo for unknown key, got %q", got)
	}

	empty := NewBundle(models.LanguageFrench, nil, nil)
	if got := empty.Resolve(KeyUnknownAnswer); got != "Unknown answer" {
		t.Errorf("expected literal default, got %q", got)
	}
	if got := empty.ResolveOr("x.y", "fallback"); got != "fallback" {
		t.Errorf("ResolveOr = %q, want fallback", got)
	}

	unknown := c.Bundle(models.Language("de"))
	if unknown.Language != models.DefaultLanguage {
		t.Errorf("expected default language bundle, got %s", unknown.Language)
	}
}

func TestBundleFormatDate(t *testing.T) {
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}

	day := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	if got := c.Bundle(models.LanguageEnglish).FormatDate(day); got != "March 4, 2026" {
		t.Errorf("en date = %q", got)
	}
	if got := c.Bundle(models.LanguageFrench).FormatDate(day); got != "04/03/2026" {
		t.Errorf("fr date = %q", got)
	}
}

func TestLoadFromDirRejectsInconsistentCatalog(t *testing.T) {
	dir := t.TempDir()
	write := func(lang, body string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Join(dir, lang), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, lang, "questions.yaml"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("en", `
questions:
  - id: q1
    domain: market
    text: First
    options:
      - {value: a, label: A, points: 0}
      - {value: b, label: B, points: 10}
`)
	write("fr", `
questions:
  - id: q1
    domain: market
    text: Premier
    options:
      - {value: a, label: A, points: 0}
      - {value: b, label: B, points: 5}
`)

	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}
	before, _ := c.Questions(models.LanguageEnglish, nil)

	err = c.LoadFromDir(dir)
	if !errors.Is(err, ErrInconsistentCatalog) {
		t.Fatalf("expected ErrInconsistentCatalog, got %v", err)
	}

	after, _ := c.Questions(models.LanguageEnglish, nil)
	if len(after) != len(before) {
		t.Errorf("failed load replaced the catalog: %d -> %d questions", len(before), len(after))
	}
	if c.Source() != "embedded" {
		t.Errorf("source = %q, want embedded", c.Source())
	}
}

func TestLoadFromDirRejectsMissingLanguage(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "en"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `
questions:
  - id: q1
    domain: market
    text: First
    options:
      - {value: a, label: A, points: 0}
      - {value: b, label: B, points: 10}
`
	if err := os.WriteFile(filepath.Join(dir, "en", "questions.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}

	err = c.LoadFromDir(dir)
	if !errors.Is(err, ErrInconsistentCatalog) || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected a missing language error, got %v", err)
	}

	if got := c.Languages(); len(got) != len(models.SupportedLanguages) {
		t.Errorf("languages after failed load = %v", got)
	}
	for _, lang := range []models.Language{models.LanguageFrench, models.LanguageArabic} {
		if qs, err := c.Questions(Match(string(lang)), nil); err != nil || len(qs) != 12 {
			t.Errorf("%s: got %d questions, err %v", lang, len(qs), err)
		}
	}
}

func TestLoadFromDirRejectsDuplicateValues(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "en"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `
questions:
  - id: q1
    domain: market
    text: First
    options:
      - {value: a, label: A, points: 0}
      - {value: a, label: B, points: 10}
`
	if err := os.WriteFile(filepath.Join(dir, "en", "questions.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := New().LoadFromDir(dir); err == nil {
		t.Fatal("expected duplicate option value error")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		prefs []string
		want  models.Language
	}{
		{[]string{"ar"}, models.LanguageArabic},
		{[]string{"FR"}, models.LanguageFrench},
		{[]string{"", "fr-CA,fr;q=0.9,en;q=0.8"}, models.LanguageFrench},
		{[]string{"ar-SA"}, models.LanguageArabic},
		{[]string{"de-DE"}, models.LanguageEnglish},
		{nil, models.LanguageEnglish},
	}

	for _, tt := range tests {
		if got := Match(tt.prefs...); got != tt.want {
			t.Errorf("Match(%q) = %s, want %s", tt.prefs, got, tt.want)
		}
	}
}
