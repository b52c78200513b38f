package model

// Item is implemented by every element of a document collection.
type Item interface {
	ItemID() string
}

type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    int    `json:"level"`
	Icon     string `json:"icon,omitempty"`
}

type Project struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Image        string   `json:"image,omitempty"`
	GitHubURL    string   `json:"github_url,omitempty"`
	LiveURL      string   `json:"live_url,omitempty"`
	Category     string   `json:"category,omitempty"`
	Featured     bool     `json:"featured"`
	Order        int      `json:"order"`
}

type Experience struct {
	ID           string   `json:"id"`
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date,omitempty"`
	Current      bool     `json:"current"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements"`
}

type Education struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	GPA         string `json:"gpa,omitempty"`
	Description string `json:"description,omitempty"`
}

type Certification struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Issuer       string `json:"issuer"`
	Date         string `json:"date"`
	CredentialID string `json:"credential_id,omitempty"`
	URL          string `json:"url,omitempty"`
	Image        string `json:"image,omitempty"`
}

// Message is a contact-form submission.
type Message struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
}

func (s Skill) ItemID() string         { return s.ID }
func (p Project) ItemID() string       { return p.ID }
func (e Experience) ItemID() string    { return e.ID }
func (e Education) ItemID() string     { return e.ID }
func (c Certification) ItemID() string { return c.ID }
func (m Message) ItemID() string       { return m.ID }

func (s *Skill) setItemID(id string)         { s.ID = id }
func (p *Project) setItemID(id string)       { p.ID = id }
func (e *Experience) setItemID(id string)    { e.ID = id }
func (e *Education) setItemID(id string)     { e.ID = id }
func (c *Certification) setItemID(id string) { c.ID = id }
func (m *Message) setItemID(id string)       { m.ID = id }
