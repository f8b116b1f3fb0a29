package selector

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const QueryPlaceholder = "{query}"

type Config struct {
	Key            string           `yaml:"key"`
	Name           string           `yaml:"name"`
	BaseURL        string           `yaml:"base_url"`
	SearchURL      string           `yaml:"search_url,omitempty"`
	SearchTemplate string           `yaml:"search_template,omitempty"`
	Search         SearchSelectors  `yaml:"search"`
	Chapters       ChapterSelectors `yaml:"chapters"`
	Reader         ReaderSelectors  `yaml:"reader"`
	Prepare        PrepareConfig    `yaml:"prepare,omitempty"`
}

type SearchSelectors struct {
	Input   string `yaml:"input,omitempty"`
	Param   string `yaml:"param,omitempty"`
	Results string `yaml:"results"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Image   string `yaml:"image,omitempty"`
}

type ChapterSelectors struct {
	List  string `yaml:"list"`
	Title string `yaml:"title,omitempty"`
	Link  string `yaml:"link"`
}

type ReaderSelectors struct {
	Images []string `yaml:"images"`
}

type PrepareConfig struct {
	LazyAttributes   []string `yaml:"lazy_attributes,omitempty"`
	ReadingModeQuery string   `yaml:"reading_mode_query,omitempty"`
}

type File struct {
	Sites []Config `yaml:"sites"`
}

func (config Config) Validate() error {
	var problems []string
	if config.Key == "" {
		problems = append(problems, "key is required")
	}
	if parsed, err := url.Parse(config.BaseURL); err != nil || !parsed.IsAbs() {
		problems = append(problems, "base_url must be an absolute url")
	}
	if config.SearchTemplate == "" && config.Search.Input == "" {
		problems = append(problems, "either search_template or search.input is required")
	}
	if config.SearchTemplate != "" && !strings.Contains(config.SearchTemplate, QueryPlaceholder) {
		problems = append(problems, "search_template must contain "+QueryPlaceholder)
	}
	if config.Search.Results == "" || config.Search.Link == "" {
		problems = append(problems, "search.results and search.link are required")
	}
	if config.Chapters.List == "" || config.Chapters.Link == "" {
		problems = append(problems, "chapters.list and chapters.link are required")
	}
	if len(config.Reader.Images) == 0 {
		problems = append(problems, "reader.images needs at least one selector")
	}

	if len(problems) > 0 {
		return errors.Newf("site %q: %s", config.Key, strings.Join(problems, "; "))
	}
	return nil
}

func LoadFile(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read sites file %s", path)
	}

	configs, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load sites file %s", path)
	}
	return configs, nil
}

func Decode(reader io.Reader) ([]Config, error) {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "unable to parse sites")
	}

	for _, config := range file.Sites {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Sites, nil
}
