package patreon

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultCursorPath is where pledge pages carry the link to the next page.
const DefaultCursorPath = "links.next"

// cursorParam is the query parameter holding the pagination cursor.
const cursorParam = "page[cursor]"

// ExtractCursor returns the cursor for the page after doc, or "" when doc is
// the last page. path is a dotted path to the next-page link and defaults to
// DefaultCursorPath.
//
// A path whose final segment is missing or cannot be looked up, or which
// meets a null, means there is no next page. A path that breaks off earlier,
// or ends on anything other than a string, wraps ErrCursorPath.
func ExtractCursor(doc *Document, path string) (string, error) {
	return extractCursor(doc.Raw(), path)
}

func extractCursor(raw []byte, path string) (string, error) {
	if path == "" {
		path = DefaultCursorPath
	}

	segments := strings.Split(path, ".")
	current := gjson.ParseBytes(raw)

	for i, segment := range segments {
		if current.Type == gjson.Null {
			return "", nil
		}
		if !current.IsObject() {
			if i == len(segments)-1 {
				return "", nil
			}
			return "", fmt.Errorf("%w: %q is a %s before %q",
				ErrCursorPath, strings.Join(segments[:i], "."), current.Type, segment)
		}

		next := current.Get(gjson.Escape(segment))
		if !next.Exists() {
			if i == len(segments)-1 {
				return "", nil
			}
			return "", fmt.Errorf("%w: %q stops at %q",
				ErrCursorPath, path, strings.Join(segments[:i+1], "."))
		}
		current = next
	}

	switch current.Type {
	case gjson.Null:
		return "", nil
	case gjson.String:
	default:
		return "", fmt.Errorf("%w: %q resolved to %s", ErrCursorPath, path, current.Type)
	}

	link := current.String()
	if link == "" {
		return "", nil
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse next link: %w", err)
	}
	return u.Query().Get(cursorParam), nil
}
