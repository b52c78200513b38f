package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseCollection(t *testing.T) {
	for _, tc := range []struct {
		input   string
		want    Collection
		wantErr bool
	}{
		{"skills", CollectionSkills, false},
		{"skill", CollectionSkills, false},
		{"Projects", CollectionProjects, false},
		{"project", CollectionProjects, false},
		{"experience", CollectionExperience, false},
		{"education", CollectionEducation, false},
		{"certification", CollectionCertifications, false},
		{" messages ", CollectionMessages, false},
		{"message", CollectionMessages, false},
		{"gadgets", "", true},
		{"", "", true},
	} {
		got, err := ParseCollection(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseCollection(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCollection(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCollection_IDPrefix(t *testing.T) {
	for _, c := range Collections {
		if c.IDPrefix() == "" {
			t.Errorf("%s has no id prefix", c)
		}
	}
	if got := CollectionMessages.IDPrefix(); got != "msg_" {
		t.Errorf("messages prefix = %q, want msg_", got)
	}
}

func TestCollection_Zero(t *testing.T) {
	var doc Document
	for _, c := range Collections {
		z := c.Zero()
		if z == nil {
			t.Fatalf("%s has no zero item", c)
		}
		if err := checkItemType(c, z); err != nil {
			t.Errorf("%s zero item: %v", c, err)
		}
		if err := doc.Append(c, z, false); err != nil {
			t.Errorf("Append(%s, zero): %v", c, err)
		}
	}
	if Collection("widgets").Zero() != nil {
		t.Error("unknown collection has a zero item")
	}
}

func TestNewDocument_EmptyCollections(t *testing.T) {
	doc := NewDocument(nil)
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, c := range Collections {
		if !bytes.Contains(data, []byte(`"`+string(c)+`":[]`)) {
			t.Errorf("expected %s to encode as an empty array, got %s", c, data)
		}
	}
	if doc.Theme != DefaultTheme {
		t.Errorf("theme = %+v, want default", doc.Theme)
	}
}

func TestDecodeDocument_NormalizesNull(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"skills":null,"personal_info":{"name":"Ada"}}`))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if doc.Skills == nil || doc.Messages == nil {
		t.Fatal("expected nil collections to be normalized")
	}
	if doc.PersonalInfo.Name != "Ada" {
		t.Errorf("name = %q, want Ada", doc.PersonalInfo.Name)
	}
}

func TestDocument_Touch(t *testing.T) {
	doc := &Document{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc.Touch(now)
	if doc.Meta.LastUpdated != "2024-03-01T12:00:00Z" {
		t.Errorf("last_updated = %q", doc.Meta.LastUpdated)
	}
	if doc.Meta.Version != SchemaVersion {
		t.Errorf("version = %q, want %q", doc.Meta.Version, SchemaVersion)
	}
}

func TestDocument_PublicStripsAdmin(t *testing.T) {
	doc := NewDocument(&Admin{Username: "admin", PasswordHash: "hash"})
	pub := doc.Public()
	if pub.Admin != nil {
		t.Fatal("expected admin to be stripped")
	}
	if doc.Admin == nil {
		t.Fatal("Public must not modify the receiver")
	}
	data, _ := json.Marshal(pub)
	if bytes.Contains(data, []byte("password_hash")) {
		t.Errorf("public document leaks credentials: %s", data)
	}
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := NewDocument(nil)
	doc.Projects = append(doc.Projects, Project{ID: "p1", Title: "A", Technologies: []string{"Go"}})
	c := doc.Clone()
	c.Projects[0].Technologies[0] = "Rust"
	c.Projects[0].Title = "B"
	if doc.Projects[0].Technologies[0] != "Go" || doc.Projects[0].Title != "A" {
		t.Fatalf("clone shares state with original: %+v", doc.Projects[0])
	}
}

func TestDocument_DecodeAndAppend(t *testing.T) {
	doc := NewDocument(nil)
	item, err := doc.DecodeItem(CollectionSkills, json.RawMessage(`{"name":"Go","category":"programming","level":80}`), "skill_1")
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	if err := doc.Append(CollectionSkills, item, false); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(doc.Skills) != 1 {
		t.Fatalf("len(skills) = %d, want 1", len(doc.Skills))
	}
	got := doc.Skills[0]
	if got.ID != "skill_1" || got.Level != 80 || got.Category != "programming" {
		t.Errorf("skill = %+v", got)
	}
}

func TestDocument_DecodeItemRejectsUnknownField(t *testing.T) {
	doc := NewDocument(nil)
	if _, err := doc.DecodeItem(CollectionSkills, json.RawMessage(`{"name":"Go","colour":"red"}`), ""); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestDocument_AppendWrongType(t *testing.T) {
	doc := NewDocument(nil)
	if err := doc.Append(CollectionSkills, Project{ID: "p1"}, false); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestDocument_AppendFront(t *testing.T) {
	doc := NewDocument(nil)
	_ = doc.Append(CollectionMessages, Message{ID: "m1"}, true)
	_ = doc.Append(CollectionMessages, Message{ID: "m2"}, true)
	if doc.Messages[0].ID != "m2" || doc.Messages[1].ID != "m1" {
		t.Errorf("messages = %+v, want newest first", doc.Messages)
	}
}

func TestDocument_PatchPreservesFields(t *testing.T) {
	doc := NewDocument(nil)
	doc.Projects = []Project{{
		ID:           "project_1",
		Title:        "Folio",
		Description:  "A portfolio",
		Technologies: []string{"Go", "HTML"},
		Featured:     true,
	}}

	item, found, err := doc.Patch(CollectionProjects, "project_1", json.RawMessage(`{"title":"Folio 2","id":"hijack"}`))
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if !found {
		t.Fatal("expected item to be found")
	}
	want := Project{
		ID:           "project_1",
		Title:        "Folio 2",
		Description:  "A portfolio",
		Technologies: []string{"Go", "HTML"},
		Featured:     true,
	}
	if !reflect.DeepEqual(item, want) {
		t.Errorf("patched = %+v, want %+v", item, want)
	}
	if !reflect.DeepEqual(doc.Projects[0], want) {
		t.Errorf("stored = %+v, want %+v", doc.Projects[0], want)
	}
}

func TestDocument_PatchUnknownID(t *testing.T) {
	doc := NewDocument(nil)
	doc.Skills = []Skill{{ID: "s1", Name: "Go"}}
	_, found, err := doc.Patch(CollectionSkills, "missing", json.RawMessage(`{"name":"Rust"}`))
	if err != nil || found {
		t.Fatalf("Patch(missing) = found %v, err %v; want not found, nil", found, err)
	}
	if doc.Skills[0].Name != "Go" {
		t.Errorf("unexpected change: %+v", doc.Skills[0])
	}
}

func TestDocument_PatchInvalidLeavesItem(t *testing.T) {
	doc := NewDocument(nil)
	doc.Skills = []Skill{{ID: "s1", Name: "Go", Level: 50}}
	if _, _, err := doc.Patch(CollectionSkills, "s1", json.RawMessage(`{"level":150}`)); err == nil {
		t.Fatal("expected validation error")
	}
	if doc.Skills[0].Level != 50 {
		t.Errorf("level = %d, want 50", doc.Skills[0].Level)
	}
}

func TestDocument_Remove(t *testing.T) {
	doc := NewDocument(nil)
	doc.Education = []Education{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}
	item, found, err := doc.Remove(CollectionEducation, "e2")
	if err != nil || !found {
		t.Fatalf("Remove = found %v, err %v", found, err)
	}
	if item.ItemID() != "e2" {
		t.Errorf("removed %q, want e2", item.ItemID())
	}
	if len(doc.Education) != 2 || doc.Education[0].ID != "e1" || doc.Education[1].ID != "e3" {
		t.Errorf("education = %+v", doc.Education)
	}
	if _, found, _ := doc.Remove(CollectionEducation, "e2"); found {
		t.Error("second remove should not find the item")
	}
}

func TestDocument_UnreadMessages(t *testing.T) {
	doc := &Document{Messages: []Message{{ID: "m1"}, {ID: "m2", Read: true}, {ID: "m3"}}}
	if got := doc.UnreadMessages(); got != 2 {
		t.Errorf("UnreadMessages() = %d, want 2", got)
	}
}

// fieldErrors extracts a *ValidationError from err or fails the test.
func fieldErrors(t *testing.T, err error) []FieldError {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	return ve.Errors
}

// hasFieldError reports whether the error list contains an error for the given field.
func hasFieldError(errs []FieldError, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func TestValidateItem(t *testing.T) {
	for _, tc := range []struct {
		name  string
		item  Item
		field string
	}{
		{"skill name", Skill{Level: 10}, "name"},
		{"skill level", Skill{Name: "Go", Level: 101}, "level"},
		{"project title", Project{}, "title"},
		{"experience company", Experience{Position: "Dev"}, "company"},
		{"experience current end", Experience{Company: "A", Position: "B", Current: true, EndDate: "2020"}, "end_date"},
		{"education degree", Education{Institution: "MIT"}, "degree"},
		{"certification name", Certification{}, "name"},
		{"message email", Message{FirstName: "A", Message: "hi", Email: "nope"}, "email"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			errs := fieldErrors(t, ValidateItem(tc.item))
			if !hasFieldError(errs, tc.field) {
				t.Errorf("expected error on %q, got %v", tc.field, errs)
			}
		})
	}
}

func TestValidateItem_Valid(t *testing.T) {
	for _, item := range []Item{
		Skill{Name: "Go", Level: 80},
		Project{Title: "Folio"},
		Education{Institution: "MIT", Degree: "BSc"},
		Message{FirstName: "Ada", Email: "ada@example.com", Message: "Hello"},
	} {
		if err := ValidateItem(item); err != nil {
			t.Errorf("ValidateItem(%T) = %v, want nil", item, err)
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{"name", "is required"}, {"level", "too high"}}}
	if got := err.Error(); got != "validation failed: name: is required; level: too high" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("expected error for toml")
	}
}

func sampleDocument() *Document {
	doc := NewDocument(nil)
	doc.PersonalInfo.Name = "Ada Lovelace"
	doc.Skills = []Skill{{ID: "skill_1", Name: "Go", Category: "programming", Level: 80}}
	doc.Projects = []Project{{ID: "project_1", Title: "42", Technologies: []string{"Go", "yes"}, Order: 2}}
	doc.Education = []Education{{ID: "edu_1", Institution: "MIT", Degree: "BSc", GPA: "3.9"}}
	doc.Messages = []Message{{ID: "msg_1", FirstName: "Bob", Email: "b@example.com", Message: "true", Timestamp: "2024-01-02T03:04:05Z"}}
	doc.Stats.TotalMessages = 1
	return doc
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			doc := sampleDocument()
			var buf bytes.Buffer
			if err := Encode(&buf, doc, format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, doc) {
				t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, doc)
			}
		})
	}
}

func TestEncode_YAMLBlockStyle(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleDocument(), FormatYAML); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Fatalf("expected block style yaml, got:\n%s", out)
	}
	if !strings.Contains(out, "name: Ada Lovelace") {
		t.Errorf("expected plain scalar for name, got:\n%s", out)
	}
	if !strings.Contains(out, `title: "42"`) {
		t.Errorf("expected numeric-looking string to stay quoted, got:\n%s", out)
	}
}
