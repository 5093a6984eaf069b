// Package content holds the portfolio's display data: profile, skills,
// experience, projects, awards and contact details.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultDocument []byte

// FilterAll matches every project.
const FilterAll = "all"

const defaultCategoryColor = "from-primary to-secondary"

type Profile struct {
	Name        string `yaml:"name"`
	Brand       string `yaml:"brand"`
	Role        string `yaml:"role"`
	Intro       string `yaml:"intro"`
	Image       string `yaml:"image"`
	FooterBlurb string `yaml:"footer_blurb"`
}

type Highlight struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

type About struct {
	Heading    string      `yaml:"heading"`
	Paragraphs []string    `yaml:"paragraphs"`
	Highlights []Highlight `yaml:"highlights"`

	// HTML is Paragraphs rendered from Markdown and sanitised.
	HTML []template.HTML `yaml:"-"`
}

type Skill struct {
	Name     string `yaml:"name"`
	Level    int    `yaml:"level"`
	Category string `yaml:"category"`
}

type Category struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type Skills struct {
	Intro      string     `yaml:"intro"`
	Items      []Skill    `yaml:"items"`
	Categories []Category `yaml:"categories"`
	Learning   string     `yaml:"learning"`
}

type Experience struct {
	ID           int      `yaml:"id"`
	Company      string   `yaml:"company"`
	Position     string   `yaml:"position"`
	Period       string   `yaml:"period"`
	Location     string   `yaml:"location"`
	Description  string   `yaml:"description"`
	Achievements []string `yaml:"achievements"`
	Technologies []string `yaml:"technologies"`
}

type Project struct {
	ID          int      `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Tech        []string `yaml:"tech"`
	Image       string   `yaml:"image"`
	DemoURL     string   `yaml:"demo_url"`
	GithubURL   string   `yaml:"github_url"`
	Featured    bool     `yaml:"featured"`
}

// Initials is the card badge shown in place of a screenshot.
func (p Project) Initials() string {
	return Initials(p.Title)
}

type Filter struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

type Projects struct {
	Filters []Filter  `yaml:"filters"`
	Items   []Project `yaml:"items"`
}

type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type Award struct {
	Title       string `yaml:"title"`
	Issuer      string `yaml:"issuer"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Stats       []Stat `yaml:"stats"`
}

type Recognition struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type Awards struct {
	Main         Award         `yaml:"main"`
	Recognitions []Recognition `yaml:"recognitions"`
}

type ContactInfo struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
	Href  string `yaml:"href"`
	Icon  string `yaml:"icon"`
}

type Contact struct {
	Heading string        `yaml:"heading"`
	Intro   string        `yaml:"intro"`
	Info    []ContactInfo `yaml:"info"`
}

type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
	Icon  string `yaml:"icon"`
}

// Portfolio is the whole page's data. It is read-only once loaded.
type Portfolio struct {
	Profile     Profile      `yaml:"profile"`
	About       About        `yaml:"about"`
	Skills      Skills       `yaml:"skills"`
	Experience  []Experience `yaml:"experience"`
	Projects    Projects     `yaml:"projects"`
	Awards      Awards       `yaml:"awards"`
	Contact     Contact      `yaml:"contact"`
	Social      []Link       `yaml:"social"`
	FooterLinks []Link       `yaml:"footer_links"`
}

// Default returns the embedded portfolio.
func Default() (*Portfolio, error) {
	return Parse(defaultDocument)
}

// Load reads a portfolio document from path, or the embedded one when
// path is empty.
func Load(path string) (*Portfolio, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, validates and renders a portfolio document.
func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	html, err := renderMarkdown(p.About.Paragraphs)
	if err != nil {
		return nil, err
	}
	p.About.HTML = html
	return &p, nil
}

// Validate checks the document for mistakes that would break the page.
func (p *Portfolio) Validate() error {
	var errs []error
	if p.Profile.Name == "" {
		errs = append(errs, errors.New("profile.name is required"))
	}
	for _, s := range p.Skills.Items {
		if s.Level < 0 || s.Level > 100 {
			errs = append(errs, fmt.Errorf("skill %q: level %d outside 0-100", s.Name, s.Level))
		}
	}
	seen := make(map[int]bool, len(p.Projects.Items))
	for _, pr := range p.Projects.Items {
		if seen[pr.ID] {
			errs = append(errs, fmt.Errorf("project id %d is duplicated", pr.ID))
		}
		seen[pr.ID] = true
	}
	for _, f := range p.Projects.Filters {
		if f.Value == "" {
			errs = append(errs, fmt.Errorf("filter %q has no value", f.Label))
		}
	}
	return errors.Join(errs...)
}

// FilterProjects returns the projects in category, keeping declaration
// order. FilterAll and "" return every project. The result is a fresh
// slice the caller may modify.
func (p *Portfolio) FilterProjects(category string) []Project {
	if category == "" || category == FilterAll {
		return slices.Clone(p.Projects.Items)
	}
	var out []Project
	for _, pr := range p.Projects.Items {
		if pr.Category == category {
			out = append(out, pr)
		}
	}
	return out
}

// CategoryColor returns the gradient classes for a skill category.
func (p *Portfolio) CategoryColor(category string) string {
	for _, c := range p.Skills.Categories {
		if c.Name == category {
			return c.Color
		}
	}
	return defaultCategoryColor
}

// Initials joins the first letter of every word.
func Initials(title string) string {
	var b strings.Builder
	for _, w := range strings.Fields(title) {
		for _, r := range w {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Typographer))
	policy   = bluemonday.UGCPolicy()
)

func renderMarkdown(paragraphs []string) ([]template.HTML, error) {
	out := make([]template.HTML, 0, len(paragraphs))
	for i, src := range paragraphs {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(src), &buf); err != nil {
			return nil, fmt.Errorf("rendering about paragraph %d: %w", i, err)
		}
		out = append(out, template.HTML(policy.SanitizeBytes(buf.Bytes())))
	}
	return out, nil
}
