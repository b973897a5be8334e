package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/coderquest/coderquest/internal/errors"
	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/models"
)

// rawQuestion is the on-disk schema. The smaller flashcard schema carries only
// question/choices/answer/point; the quiz schema adds hint, explanation,
// difficulty and category, all optional.
type rawQuestion struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	Point       int      `json:"point"`
	Hint        string   `json:"hint"`
	Explanation string   `json:"explanation"`
	Difficulty  string   `json:"difficulty"`
	Category    string   `json:"category"`
}

// Catalog holds the fully loaded question banks, one per language.
// It is immutable after Load; sampling and choice shuffling are session
// responsibilities.
type Catalog struct {
	languages map[string][]models.QuestionItem
}

// Load reads every <language>.json file in dir. Files that fail to parse or
// validate leave their language unavailable rather than aborting the load;
// sessions for that language will fail to start with CONTENT_UNAVAILABLE.
func Load(dir string) (*Catalog, error) {
	log := logger.Default().WithPrefix("catalog")

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Error("failed to read catalog directory %s: %v", dir, err)
		return nil, fmt.Errorf("read catalog dir %s: %w", dir, err)
	}

	c := &Catalog{languages: make(map[string][]models.QuestionItem)}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		language := strings.TrimSuffix(name, ".json")

		questions, err := loadFile(filepath.Join(dir, name), language)
		if err != nil {
			log.Warn("skipping catalog for %s: %v", language, err)
			continue
		}
		c.languages[language] = questions
		log.Info("loaded catalog: language=%s, questions=%d", language, len(questions))
	}

	log.Info("catalog ready: %d languages", len(c.languages))
	return c, nil
}

func loadFile(path, language string) ([]models.QuestionItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}

	questions := make([]models.QuestionItem, 0, len(raw))
	for i, r := range raw {
		q, err := buildQuestion(r, language)
		if err != nil {
			// One malformed item makes the whole language unusable; a session
			// must never start against a partially valid catalog.
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func buildQuestion(r rawQuestion, language string) (models.QuestionItem, error) {
	var q models.QuestionItem

	if strings.TrimSpace(r.Question) == "" {
		return q, fmt.Errorf("missing question text")
	}
	if len(r.Choices) < 3 || len(r.Choices) > 5 {
		return q, fmt.Errorf("expected 3-5 choices, got %d", len(r.Choices))
	}
	seen := make(map[string]bool, len(r.Choices))
	answerFound := false
	for _, choice := range r.Choices {
		if seen[choice] {
			return q, fmt.Errorf("duplicate choice %q", choice)
		}
		seen[choice] = true
		if choice == r.Answer {
			answerFound = true
		}
	}
	if !answerFound {
		return q, fmt.Errorf("answer %q is not one of the choices", r.Answer)
	}
	if r.Point <= 0 {
		return q, fmt.Errorf("point value must be positive, got %d", r.Point)
	}

	difficulty := models.Difficulty(r.Difficulty)
	if !difficulty.Valid() {
		difficulty = models.DifficultyForPoints(r.Point)
	}
	category := r.Category
	if category == "" {
		category = language
	}

	return models.QuestionItem{
		Prompt:        r.Question,
		Choices:       append([]string(nil), r.Choices...),
		CorrectChoice: r.Answer,
		BasePoints:    r.Point,
		Difficulty:    difficulty,
		Hint:          r.Hint,
		Explanation:   r.Explanation,
		Category:      category,
	}, nil
}

// Languages lists every language with a usable question bank, sorted.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.languages))
	for lang := range c.languages {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Questions returns the full question bank for a language.
func (c *Catalog) Questions(language string) ([]models.QuestionItem, error) {
	questions, ok := c.languages[language]
	if !ok {
		return nil, apperrors.NewContentUnavailableError(language, nil)
	}
	out := make([]models.QuestionItem, len(questions))
	copy(out, questions)
	return out, nil
}
