package patreon

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ResourceIdentifier points at a resource by type and id.
type ResourceIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Relationship is a JSON:API relationship member. Data holds every linked
// identifier; a null or missing "data" leaves it empty.
type Relationship struct {
	Data []ResourceIdentifier
}

// UnmarshalJSON accepts to-one (object or null) and to-many (array) linkage.
func (r *Relationship) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	ids, err := decodeOneOrMany[ResourceIdentifier](raw.Data)
	if err != nil {
		return fmt.Errorf("relationship data: %w", err)
	}
	r.Data = ids
	return nil
}

// HasData reports whether the relationship links to at least one resource.
func (r Relationship) HasData() bool {
	return len(r.Data) > 0
}

// Resource is a single JSON:API resource object.
type Resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships"`
}

// Attribute looks up a dotted attribute path. The result reports
// Exists() == false when any segment is missing.
func (r *Resource) Attribute(path string) gjson.Result {
	if r == nil || len(r.Attributes) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Attributes, path)
}

// DecodeAttributes unmarshals the attributes object into v.
func (r *Resource) DecodeAttributes(v any) error {
	if len(r.Attributes) == 0 {
		return nil
	}
	return json.Unmarshal(r.Attributes, v)
}

// ResourceList is the primary "data" member, which the API sends either as a
// single object or as an array.
type ResourceList []Resource

// UnmarshalJSON accepts an object, an array or null.
func (l *ResourceList) UnmarshalJSON(b []byte) error {
	resources, err := decodeOneOrMany[Resource](b)
	if err != nil {
		return err
	}
	*l = resources
	return nil
}

// Document is a decoded JSON:API response.
type Document struct {
	Data     ResourceList `json:"data"`
	Included []Resource   `json:"included"`

	raw   []byte
	index map[ResourceIdentifier]*Resource
}

// ParseDocument decodes a JSON:API body and indexes its resources for
// relationship lookups. The raw body stays available through Raw.
func ParseDocument(body []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, err
	}

	doc.raw = body
	doc.index = make(map[ResourceIdentifier]*Resource, len(doc.Data)+len(doc.Included))
	for i := range doc.Data {
		doc.indexResource(&doc.Data[i])
	}
	for i := range doc.Included {
		doc.indexResource(&doc.Included[i])
	}

	return doc, nil
}

func (d *Document) indexResource(r *Resource) {
	key := ResourceIdentifier{ID: r.ID, Type: r.Type}
	if _, seen := d.index[key]; !seen {
		d.index[key] = r
	}
}

// Raw returns the undecoded response body.
func (d *Document) Raw() []byte {
	if d == nil {
		return nil
	}
	return d.raw
}

// Find returns the resource with the given identifier from data or included.
func (d *Document) Find(id ResourceIdentifier) (*Resource, bool) {
	if d == nil {
		return nil, false
	}
	r, ok := d.index[id]
	return r, ok
}

// Related resolves the first resource linked from r through the named
// relationship. It reports false when the relationship is absent, has no
// data, or points at a resource the document does not include.
func (d *Document) Related(r *Resource, name string) (*Resource, bool) {
	if r == nil {
		return nil, false
	}
	rel, ok := r.Relationships[name]
	if !ok || !rel.HasData() {
		return nil, false
	}
	return d.Find(rel.Data[0])
}

func decodeOneOrMany[T any](b []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return nil, err
		}
		return many, nil
	}

	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}
