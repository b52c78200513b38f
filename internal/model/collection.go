package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Collection names a list inside the Document.
type Collection string

const (
	CollectionSkills         Collection = "skills"
	CollectionProjects       Collection = "projects"
	CollectionExperience     Collection = "experience"
	CollectionEducation      Collection = "education"
	CollectionCertifications Collection = "certifications"
	CollectionMessages       Collection = "messages"
)

// Collections lists every collection in document order.
var Collections = []Collection{
	CollectionSkills,
	CollectionProjects,
	CollectionExperience,
	CollectionEducation,
	CollectionCertifications,
	CollectionMessages,
}

// collectionAliases maps singular item type names to their collection.
var collectionAliases = map[string]Collection{
	"skill":         CollectionSkills,
	"project":       CollectionProjects,
	"certification": CollectionCertifications,
	"message":       CollectionMessages,
}

// idPrefixes is the per-collection prefix of generated item IDs.
var idPrefixes = map[Collection]string{
	CollectionSkills:         "skill_",
	CollectionProjects:       "project_",
	CollectionExperience:     "exp_",
	CollectionEducation:      "edu_",
	CollectionCertifications: "cert_",
	CollectionMessages:       "msg_",
}

// ParseCollection resolves a collection name. Singular item type names such
// as "skill" are accepted as aliases.
func ParseCollection(s string) (Collection, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c := Collection(s); c.IsValid() {
		return c, nil
	}
	if c, ok := collectionAliases[s]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// IsValid reports whether c names a known collection.
func (c Collection) IsValid() bool {
	return slices.Contains(Collections, c)
}

// IDPrefix returns the prefix used for IDs generated in this collection.
func (c Collection) IDPrefix() string {
	return idPrefixes[c]
}

// Zero returns the zero element of c, or nil for an unknown collection.
func (c Collection) Zero() Item {
	switch c {
	case CollectionSkills:
		return Skill{}
	case CollectionProjects:
		return Project{}
	case CollectionExperience:
		return Experience{}
	case CollectionEducation:
		return Education{}
	case CollectionCertifications:
		return Certification{}
	case CollectionMessages:
		return Message{}
	}
	return nil
}

// itemPtr constrains the pointer form of a collection element.
type itemPtr[T Item] interface {
	*T
	setItemID(string)
}

// slot gives uniform access to one typed collection slice.
type slot interface {
	items() []Item
	index(id string) int
	decode(fields json.RawMessage, id string) (Item, error)
	insert(item Item, front bool)
	patch(i int, fields json.RawMessage) (Item, error)
	replace(i int, item Item)
	remove(i int) Item
}

type typedSlot[T Item, P itemPtr[T]] struct {
	s *[]T
}

func (t typedSlot[T, P]) items() []Item {
	out := make([]Item, len(*t.s))
	for i, v := range *t.s {
		out[i] = v
	}
	return out
}

func (t typedSlot[T, P]) index(id string) int {
	return slices.IndexFunc(*t.s, func(v T) bool { return v.ItemID() == id })
}

func (t typedSlot[T, P]) decode(fields json.RawMessage, id string) (Item, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(fields))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if id != "" {
		P(&v).setItemID(id)
	}
	return v, nil
}

func (t typedSlot[T, P]) insert(item Item, front bool) {
	v := item.(T)
	if front {
		*t.s = slices.Insert(*t.s, 0, v)
		return
	}
	*t.s = append(*t.s, v)
}

// patch decodes fields over a copy of element i. Fields absent from the
// patch keep their current value; the ID never changes.
func (t typedSlot[T, P]) patch(i int, fields json.RawMessage) (Item, error) {
	v := (*t.s)[i]
	id := v.ItemID()
	dec := json.NewDecoder(bytes.NewReader(fields))
	dec.DisallowUnknownFields()
	if err := dec.Decode(P(&v)); err != nil {
		return nil, err
	}
	P(&v).setItemID(id)
	return v, nil
}

func (t typedSlot[T, P]) replace(i int, item Item) {
	(*t.s)[i] = item.(T)
}

func (t typedSlot[T, P]) remove(i int) Item {
	v := (*t.s)[i]
	*t.s = slices.Delete(*t.s, i, i+1)
	return v
}

func (d *Document) slot(c Collection) (slot, error) {
	switch c {
	case CollectionSkills:
		return typedSlot[Skill, *Skill]{&d.Skills}, nil
	case CollectionProjects:
		return typedSlot[Project, *Project]{&d.Projects}, nil
	case CollectionExperience:
		return typedSlot[Experience, *Experience]{&d.Experience}, nil
	case CollectionEducation:
		return typedSlot[Education, *Education]{&d.Education}, nil
	case CollectionCertifications:
		return typedSlot[Certification, *Certification]{&d.Certifications}, nil
	case CollectionMessages:
		return typedSlot[Message, *Message]{&d.Messages}, nil
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

// Items returns the elements of collection c in document order.
func (d *Document) Items(c Collection) ([]Item, error) {
	s, err := d.slot(c)
	if err != nil {
		return nil, err
	}
	return s.items(), nil
}

// Find returns the element of c with the given ID.
func (d *Document) Find(c Collection, id string) (Item, bool, error) {
	s, err := d.slot(c)
	if err != nil {
		return nil, false, err
	}
	i := s.index(id)
	if i < 0 {
		return nil, false, nil
	}
	return s.items()[i], true, nil
}

// DecodeItem builds a typed element of c from a JSON object. Unknown fields
// are rejected. If id is non-empty it overrides any id in fields.
func (d *Document) DecodeItem(c Collection, fields json.RawMessage, id string) (Item, error) {
	s, err := d.slot(c)
	if err != nil {
		return nil, err
	}
	item, err := s.decode(fields, id)
	if err != nil {
		return nil, fmt.Errorf("decode %s item: %w", c, err)
	}
	return item, nil
}

// Append adds item at the end of c, or at the front when front is set.
// The item must be of the collection's element type.
func (d *Document) Append(c Collection, item Item, front bool) error {
	s, err := d.slot(c)
	if err != nil {
		return err
	}
	if err := checkItemType(c, item); err != nil {
		return err
	}
	s.insert(item, front)
	return nil
}

// Patch merges fields over the element of c with the given ID and returns
// the merged element. found is false when no element has that ID.
func (d *Document) Patch(c Collection, id string, fields json.RawMessage) (item Item, found bool, err error) {
	s, err := d.slot(c)
	if err != nil {
		return nil, false, err
	}
	i := s.index(id)
	if i < 0 {
		return nil, false, nil
	}
	merged, err := s.patch(i, fields)
	if err != nil {
		return nil, true, fmt.Errorf("patch %s item %s: %w", c, id, err)
	}
	if err := ValidateItem(merged); err != nil {
		return nil, true, err
	}
	s.replace(i, merged)
	return merged, true, nil
}

// Remove deletes the element of c with the given ID and returns it.
func (d *Document) Remove(c Collection, id string) (Item, bool, error) {
	s, err := d.slot(c)
	if err != nil {
		return nil, false, err
	}
	i := s.index(id)
	if i < 0 {
		return nil, false, nil
	}
	return s.remove(i), true, nil
}

func checkItemType(c Collection, item Item) error {
	var ok bool
	switch c {
	case CollectionSkills:
		_, ok = item.(Skill)
	case CollectionProjects:
		_, ok = item.(Project)
	case CollectionExperience:
		_, ok = item.(Experience)
	case CollectionEducation:
		_, ok = item.(Education)
	case CollectionCertifications:
		_, ok = item.(Certification)
	case CollectionMessages:
		_, ok = item.(Message)
	}
	if !ok {
		return fmt.Errorf("item of type %T does not belong in %s", item, c)
	}
	return nil
}

// WithID returns a copy of item carrying the given ID.
func WithID(item Item, id string) Item {
	switch v := item.(type) {
	case Skill:
		v.ID = id
		return v
	case Project:
		v.ID = id
		return v
	case Experience:
		v.ID = id
		return v
	case Education:
		v.ID = id
		return v
	case Certification:
		v.ID = id
		return v
	case Message:
		v.ID = id
		return v
	}
	return item
}
