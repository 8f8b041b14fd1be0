package patreon

import (
	"net/url"
	"strings"
)

// BuildURL appends JSON:API include and sparse fieldset parameters to path.
// fields maps a resource type to the attributes requested for it.
func BuildURL(path string, includes []string, fields map[string][]string) string {
	params := url.Values{}
	if len(includes) > 0 {
		params.Set("include", strings.Join(includes, ","))
	}
	for resourceType, attributes := range fields {
		params.Set("fields["+resourceType+"]", strings.Join(attributes, ","))
	}

	if len(params) == 0 {
		return path
	}

	connector := "?"
	if strings.Contains(path, "?") {
		connector = "&"
	}
	return path + connector + params.Encode()
}
