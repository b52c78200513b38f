// Package render turns the portfolio document into HTML, one section at a
// time or as a full page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/alfredjeanlab/folio/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Section names a renderable part of the page.
type Section string

const (
	SectionHero           Section = "hero"
	SectionAbout          Section = "about"
	SectionSkills         Section = "skills"
	SectionProjects       Section = "projects"
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionCertifications Section = "certifications"
	SectionSocial         Section = "social"
	SectionMessages       Section = "messages"
)

// Sections lists every section in page order. Messages are admin-only and
// not part of the public page.
var Sections = []Section{
	SectionHero,
	SectionAbout,
	SectionSkills,
	SectionProjects,
	SectionExperience,
	SectionEducation,
	SectionCertifications,
	SectionSocial,
	SectionMessages,
}

// ParseSection resolves a section name.
func ParseSection(s string) (Section, error) {
	sec := Section(strings.ToLower(s))
	if !slices.Contains(Sections, sec) {
		return "", fmt.Errorf("unknown section %q", s)
	}
	return sec, nil
}

// Renderer renders documents through the embedded templates.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("folio").Funcs(template.FuncMap{
		"initials": initials,
		"css":      cssColor,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, now: time.Now}, nil
}

// Section writes one section of doc to w.
func (r *Renderer) Section(w io.Writer, section Section, doc *model.Document) error {
	if !slices.Contains(Sections, section) {
		return fmt.Errorf("unknown section %q", section)
	}
	return r.tmpl.ExecuteTemplate(w, string(section), r.view(doc))
}

// Page writes the full public page for doc to w.
func (r *Renderer) Page(w io.Writer, doc *model.Document) error {
	return r.tmpl.ExecuteTemplate(w, "page", r.view(doc))
}

type skillGroup struct {
	Category string
	Skills   []model.Skill
}

type socialLink struct {
	Name  string
	Label string
	URL   string
}

// view is the template data derived from a document.
type view struct {
	Doc         *model.Document
	SkillGroups []skillGroup
	Projects    []model.Project
	Socials     []socialLink
	Unread      int
	Year        int
}

func (r *Renderer) view(doc *model.Document) view {
	if doc == nil {
		doc = model.NewDocument(nil)
	}
	return view{
		Doc:         doc,
		SkillGroups: groupSkills(doc.Skills),
		Projects:    orderProjects(doc.Projects),
		Socials:     socialLinks(doc.SocialLinks),
		Unread:      doc.UnreadMessages(),
		Year:        r.now().Year(),
	}
}

// groupSkills groups skills by category, keeping first-seen category order.
func groupSkills(skills []model.Skill) []skillGroup {
	var groups []skillGroup
	index := make(map[string]int)
	for _, s := range skills {
		cat := s.Category
		if cat == "" {
			cat = "other"
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, skillGroup{Category: cat})
		}
		groups[i].Skills = append(groups[i].Skills, s)
	}
	for i := range groups {
		groups[i].Category = titleCase(groups[i].Category)
	}
	return groups
}

// orderProjects puts featured projects first, then sorts by Order. Ties
// keep document order.
func orderProjects(projects []model.Project) []model.Project {
	out := slices.Clone(projects)
	slices.SortStableFunc(out, func(a, b model.Project) int {
		if a.Featured != b.Featured {
			if a.Featured {
				return -1
			}
			return 1
		}
		return a.Order - b.Order
	})
	return out
}

func socialLinks(s model.SocialLinks) []socialLink {
	var links []socialLink
	for _, l := range []socialLink{
		{"github", "GitHub", s.GitHub},
		{"linkedin", "LinkedIn", s.LinkedIn},
		{"twitter", "Twitter", s.Twitter},
		{"instagram", "Instagram", s.Instagram},
		{"youtube", "YouTube", s.YouTube},
		{"dribbble", "Dribbble", s.Dribbble},
	} {
		if strings.TrimSpace(l.URL) != "" {
			links = append(links, l)
		}
	}
	return links
}

func initials(name string) string {
	var b strings.Builder
	for _, f := range strings.Fields(name) {
		for _, r := range f {
			b.WriteRune(r)
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	return strings.ToUpper(b.String())
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

// cssColor passes through hex colors and drops anything else.
func cssColor(c string) template.CSS {
	if hexColor.MatchString(c) {
		return template.CSS(c)
	}
	return template.CSS("inherit")
}
