package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/cockroachdb/errors"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

const DefaultRange = "all"

var ErrCancelled = errors.New("prompt cancelled")

// AskFunc matches survey.AskOne.
type AskFunc func(prompt survey.Prompt, response interface{}, opts ...survey.AskOpt) error

type Prompter struct {
	ask AskFunc
}

func New() *Prompter {
	return &Prompter{ask: survey.AskOne}
}

// NewWithAsk is used by tests to script answers.
func NewWithAsk(ask AskFunc) *Prompter {
	return &Prompter{ask: ask}
}

func (prompter *Prompter) AskSite(sites []manga.Site) (string, error) {
	if len(sites) == 0 {
		return "", errors.New("no sites registered")
	}

	options := make([]string, 0, len(sites))
	for _, site := range sites {
		options = append(options, SiteOption(site))
	}

	var index int
	sitePrompt := &survey.Select{
		Message: "Site:",
		Options: options,
	}
	if err := prompter.askOne(sitePrompt, &index); err != nil {
		return "", err
	}
	if index < 0 || index >= len(sites) {
		return "", errors.Wrapf(manga.ErrInvalidChoice, "site index %d", index)
	}
	return sites[index].Key, nil
}

func (prompter *Prompter) AskTitle() (string, error) {
	var title string
	titlePrompt := &survey.Input{
		Message: "Title:",
	}
	if err := prompter.askOne(titlePrompt, &title, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return strings.TrimSpace(title), nil
}

func (prompter *Prompter) AskRange() (string, error) {
	var expression string
	rangePrompt := &survey.Input{
		Message: "Chapters:",
		Default: DefaultRange,
		Help:    `"all", a single chapter like "12", or a list like "1-5, 8, 10.5"`,
	}
	if err := prompter.askOne(rangePrompt, &expression); err != nil {
		return "", err
	}
	expression = strings.TrimSpace(expression)
	if expression == "" {
		expression = DefaultRange
	}
	return expression, nil
}

// Choose asks the user to pick one of several search results.
func (prompter *Prompter) Choose(_ context.Context, results []manga.SearchResult) (int, error) {
	options := make([]string, 0, len(results))
	for index, result := range results {
		options = append(options, ResultOption(index, result))
	}

	var index int
	resultPrompt := &survey.Select{
		Message:  "Several works matched:",
		Options:  options,
		PageSize: 10,
	}
	if err := prompter.askOne(resultPrompt, &index); err != nil {
		return -1, err
	}
	return index, nil
}

func (prompter *Prompter) askOne(question survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	err := prompter.ask(question, response, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return errors.Mark(err, ErrCancelled)
	}
	return err
}

func SiteOption(site manga.Site) string {
	if site.Name == "" || strings.EqualFold(site.Name, site.Key) {
		return site.Key
	}
	return fmt.Sprintf("%s (%s)", site.Name, site.Key)
}

func ResultOption(index int, result manga.SearchResult) string {
	return fmt.Sprintf("%d. %s", index+1, result.Title)
}

// FixedChooser answers every disambiguation with the same 1-based pick.
type FixedChooser int

func (pick FixedChooser) Choose(_ context.Context, results []manga.SearchResult) (int, error) {
	index := int(pick) - 1
	if index < 0 || index >= len(results) {
		return -1, errors.Wrapf(manga.ErrInvalidChoice, "pick %d with %d results", int(pick), len(results))
	}
	return index, nil
}
