package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is stamped into Meta.Version on every save.
const SchemaVersion = "1.0.0"

// Document is the portfolio configuration: the single JSON document that
// holds every piece of site content.
type Document struct {
	Meta           Meta            `json:"meta"`
	Admin          *Admin          `json:"admin,omitempty"`
	PersonalInfo   PersonalInfo    `json:"personal_info"`
	SocialLinks    SocialLinks     `json:"social_links"`
	Skills         []Skill         `json:"skills"`
	Projects       []Project       `json:"projects"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Certifications []Certification `json:"certifications"`
	Messages       []Message       `json:"messages"`
	Stats          Stats           `json:"stats"`
	Theme          Theme           `json:"theme"`
}

// Meta records when the document was last written.
type Meta struct {
	LastUpdated string `json:"last_updated,omitempty"`
	Version     string `json:"version,omitempty"`
}

// Admin holds the panel credentials. It is never served to clients.
type Admin struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

type PersonalInfo struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Location     string `json:"location"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profile_image"`
	ResumeLink   string `json:"resume_link"`
}

type SocialLinks struct {
	GitHub    string `json:"github"`
	LinkedIn  string `json:"linkedin"`
	Twitter   string `json:"twitter"`
	Instagram string `json:"instagram"`
	YouTube   string `json:"youtube"`
	Dribbble  string `json:"dribbble"`
}

type Stats struct {
	TotalVisitors   int `json:"total_visitors"`
	TotalMessages   int `json:"total_messages"`
	ProjectsCount   int `json:"projects_count"`
	YearsExperience int `json:"years_experience"`
}

type Theme struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
}

// DefaultTheme is applied to newly created documents.
var DefaultTheme = Theme{
	PrimaryColor:   "#6366f1",
	SecondaryColor: "#8b5cf6",
	AccentColor:    "#06b6d4",
}

// NewDocument returns the document a fresh installation starts with.
// admin may be nil.
func NewDocument(admin *Admin) *Document {
	return &Document{
		Meta:  Meta{Version: SchemaVersion},
		Admin: admin,
		PersonalInfo: PersonalInfo{
			Name:     "Your Name",
			Title:    "Full Stack Developer",
			Subtitle: "Building digital experiences",
			Email:    "your.email@example.com",
			Bio:      "Write a short introduction about yourself here.",
		},
		Skills:         []Skill{},
		Projects:       []Project{},
		Experience:     []Experience{},
		Education:      []Education{},
		Certifications: []Certification{},
		Messages:       []Message{},
		Theme:          DefaultTheme,
	}
}

// Touch stamps the metadata written on every save.
func (d *Document) Touch(now time.Time) {
	d.Meta.LastUpdated = now.UTC().Format(time.RFC3339)
	d.Meta.Version = SchemaVersion
}

// Normalize replaces nil collections with empty ones so the document always
// encodes them as arrays.
func (d *Document) Normalize() {
	if d.Skills == nil {
		d.Skills = []Skill{}
	}
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	if d.Experience == nil {
		d.Experience = []Experience{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Certifications == nil {
		d.Certifications = []Certification{}
	}
	if d.Messages == nil {
		d.Messages = []Message{}
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	data, err := json.Marshal(d)
	if err != nil {
		// Every field is a plain JSON type.
		panic(fmt.Sprintf("model: clone document: %v", err))
	}
	var c Document
	if err := json.Unmarshal(data, &c); err != nil {
		panic(fmt.Sprintf("model: clone document: %v", err))
	}
	c.Normalize()
	return &c
}

// Public returns a copy of the document without the admin credentials.
func (d *Document) Public() *Document {
	c := d.Clone()
	c.Admin = nil
	return c
}

// UnreadMessages returns the number of messages not yet marked read.
func (d *Document) UnreadMessages() int {
	n := 0
	for _, m := range d.Messages {
		if !m.Read {
			n++
		}
	}
	return n
}

// DecodeDocument parses a JSON document.
func DecodeDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	d.Normalize()
	return &d, nil
}
