package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/folio/internal/model"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func renderSection(t *testing.T, r *Renderer, s Section, doc *model.Document) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Section(&buf, s, doc); err != nil {
		t.Fatalf("Section(%s): %v", s, err)
	}
	return buf.String()
}

func TestSection_EmptyPlaceholders(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	for s, want := range map[Section]string{
		SectionSkills:         "No skills added yet.",
		SectionProjects:       "No projects added yet.",
		SectionExperience:     "No experience added yet.",
		SectionEducation:      "No education added yet.",
		SectionCertifications: "No certifications added yet.",
		SectionMessages:       "No messages yet.",
	} {
		out := renderSection(t, r, s, doc)
		if !strings.Contains(out, `<p class="empty-state">`+want+`</p>`) {
			t.Errorf("%s: expected placeholder %q, got:\n%s", s, want, out)
		}
	}
}

func TestSection_EducationOmitsMissingGPA(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	doc.Education = []model.Education{
		{ID: "edu_1", Institution: "MIT", Degree: "BSc", Field: "CS", GPA: "3.9"},
		{ID: "edu_2", Institution: "ETH", Degree: "MSc"},
	}
	out := renderSection(t, r, SectionEducation, doc)
	if strings.Count(out, "GPA:") != 1 {
		t.Errorf("expected exactly one GPA line, got:\n%s", out)
	}
	if !strings.Contains(out, "GPA: 3.9") || !strings.Contains(out, "BSc in CS") {
		t.Errorf("missing education details:\n%s", out)
	}
	if strings.Contains(out, "empty-state") {
		t.Error("non-empty collection rendered the placeholder")
	}
}

func TestSection_SkillsGroupedByCategory(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	doc.Skills = []model.Skill{
		{ID: "s1", Name: "Go", Category: "programming", Level: 80},
		{ID: "s2", Name: "Figma", Category: "design", Level: 40},
		{ID: "s3", Name: "Rust", Category: "programming", Level: 60},
	}
	out := renderSection(t, r, SectionSkills, doc)
	prog := strings.Index(out, "<h3>Programming</h3>")
	design := strings.Index(out, "<h3>Design</h3>")
	rust := strings.Index(out, "Rust")
	if prog < 0 || design < 0 || rust < 0 {
		t.Fatalf("missing groups:\n%s", out)
	}
	if !(prog < rust && rust < design) {
		t.Errorf("expected Rust grouped under Programming before Design:\n%s", out)
	}
	if !strings.Contains(out, "width: 80%") {
		t.Errorf("missing level bar:\n%s", out)
	}
}

func TestSection_ProjectsOrderAndOptionalFields(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	doc.Projects = []model.Project{
		{ID: "p1", Title: "Second", Order: 2},
		{ID: "p2", Title: "Star", Featured: true, Order: 9, Image: "/assets/images/projects/a.png", Technologies: []string{"Go", "HTMX"}},
		{ID: "p3", Title: "First", Order: 1, GitHubURL: "https://github.com/x/y"},
	}
	out := renderSection(t, r, SectionProjects, doc)
	star, first, second := strings.Index(out, "Star"), strings.Index(out, "First"), strings.Index(out, "Second")
	if !(star < first && first < second) {
		t.Errorf("unexpected project order:\n%s", out)
	}
	if strings.Count(out, "<img") != 1 {
		t.Errorf("expected one image, got:\n%s", out)
	}
	if strings.Count(out, `class="github"`) != 1 || strings.Contains(out, `class="live"`) {
		t.Errorf("unexpected links:\n%s", out)
	}
	if !strings.Contains(out, "<li>HTMX</li>") {
		t.Errorf("missing technologies:\n%s", out)
	}
}

func TestSection_ExperienceCurrent(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	doc.Experience = []model.Experience{{ID: "e1", Company: "Acme", Position: "Engineer", StartDate: "2020", Current: true}}
	out := renderSection(t, r, SectionExperience, doc)
	if !strings.Contains(out, "2020 &ndash; Present") {
		t.Errorf("expected Present for current role:\n%s", out)
	}
}

func TestSection_SocialOmitsEmptyLinks(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	doc.SocialLinks = model.SocialLinks{GitHub: "https://github.com/ada", Twitter: "  "}
	out := renderSection(t, r, SectionSocial, doc)
	if !strings.Contains(out, `href="https://github.com/ada"`) {
		t.Errorf("missing github link:\n%s", out)
	}
	if strings.Contains(out, `class="twitter"`) || strings.Contains(out, `class="linkedin"`) {
		t.Errorf("empty links rendered:\n%s", out)
	}
}

func TestSection_MessagesUnread(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	doc.Messages = []model.Message{
		{ID: "m1", FirstName: "Bob", Email: "b@example.com", Message: "hi"},
		{ID: "m2", FirstName: "Eve", Email: "e@example.com", Message: "yo", Read: true},
	}
	out := renderSection(t, r, SectionMessages, doc)
	if strings.Count(out, "message unread") != 1 {
		t.Errorf("expected one unread message:\n%s", out)
	}
	if !strings.Contains(out, `<span class="badge">1</span>`) {
		t.Errorf("missing unread badge:\n%s", out)
	}
}

func TestSection_EscapesContent(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	doc.Messages = []model.Message{{ID: "m1", FirstName: "<script>alert(1)</script>", Email: "x@example.com"}}
	out := renderSection(t, r, SectionMessages, doc)
	if strings.Contains(out, "<script>") {
		t.Errorf("message content not escaped:\n%s", out)
	}
}

func TestSection_Unknown(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	if err := r.Section(&buf, Section("page"), model.NewDocument(nil)); err == nil {
		t.Fatal("expected error for unknown section")
	}
}

func TestPage(t *testing.T) {
	r := newTestRenderer(t)
	doc := model.NewDocument(nil)
	doc.PersonalInfo.Name = "Ada Lovelace"
	doc.Theme.PrimaryColor = "red;}</style><script>"
	var buf bytes.Buffer
	if err := r.Page(&buf, doc); err != nil {
		t.Fatalf("Page: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<title>Ada Lovelace | Full Stack Developer</title>", `id="skills"`, `id="contact"`, "&copy; 2024 Ada Lovelace", "AL"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(out, `id="messages"`) {
		t.Error("public page must not include the inbox")
	}
	if strings.Contains(out, "<script>") && !strings.Contains(out, `--primary: inherit`) {
		t.Errorf("invalid theme colour was not rejected:\n%s", out)
	}
}

func TestParseSection(t *testing.T) {
	if s, err := ParseSection("Skills"); err != nil || s != SectionSkills {
		t.Errorf("ParseSection(Skills) = %q, %v", s, err)
	}
	if _, err := ParseSection("footer"); err == nil {
		t.Error("expected error for unknown section")
	}
}

func TestInitials(t *testing.T) {
	for in, want := range map[string]string{"Ada Lovelace": "AL", "grace": "G", "": "", "Jean Luc Picard": "JL"} {
		if got := initials(in); got != want {
			t.Errorf("initials(%q) = %q, want %q", in, got, want)
		}
	}
}
