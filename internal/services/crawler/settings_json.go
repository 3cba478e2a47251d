package crawler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/quaestor/internal/models"
)

// labelKeys are the sibling fields consulted, in order, when labelling a URL
// found inside the settings JSON.
var labelKeys = []string{"label", "title", "name", "text"}

// settingsValue is one decoded JSON value. Objects keep their members in
// document order so "first sibling key" is deterministic; map-based decoding
// would shuffle them.
type settingsValue struct {
	object  []settingsMember
	array   []settingsValue
	str     string
	isStr   bool
	isObj   bool
	isArray bool
}

type settingsMember struct {
	key   string
	value settingsValue
}

// extractSettingsLinks walks the settings blob recursively and returns every
// string value that looks like a link (http://, https://, or /-prefixed),
// labelled from its containing object's sibling fields.
func extractSettingsLinks(blob string) ([]models.ExtractedLink, error) {
	dec := json.NewDecoder(strings.NewReader(blob))
	root, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings JSON: %w", err)
	}

	var links []models.ExtractedLink
	walkSettings(root, &links)
	return links, nil
}

// decodeValue reads one JSON value from the decoder, preserving object
// member order.
func decodeValue(dec *json.Decoder) (settingsValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return settingsValue{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (settingsValue, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var obj []settingsMember
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return settingsValue{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return settingsValue{}, fmt.Errorf("non-string object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return settingsValue{}, err
				}
				obj = append(obj, settingsMember{key: key, value: val})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return settingsValue{}, err
			}
			return settingsValue{object: obj, isObj: true}, nil
		case '[':
			var arr []settingsValue
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return settingsValue{}, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return settingsValue{}, err
			}
			return settingsValue{array: arr, isArray: true}, nil
		}
		return settingsValue{}, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return settingsValue{str: t, isStr: true}, nil
	default:
		// Numbers, booleans, null: not link candidates, shape is enough.
		return settingsValue{}, nil
	}
}

func walkSettings(v settingsValue, links *[]models.ExtractedLink) {
	switch {
	case v.isObj:
		for _, member := range v.object {
			if member.value.isStr && isLinkCandidate(member.value.str) {
				*links = append(*links, models.ExtractedLink{
					URL:  member.value.str,
					Text: settingsLabel(v.object, member.key),
				})
			}
			walkSettings(member.value, links)
		}
	case v.isArray:
		for _, item := range v.array {
			walkSettings(item, links)
		}
	}
}

func isLinkCandidate(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "/")
}

// settingsLabel picks the label for a URL member from its siblings: first an
// exact match on a label key, then the first sibling string key containing
// one of those words, excluding any key containing "alttext". Missing labels
// yield empty text.
func settingsLabel(siblings []settingsMember, urlKey string) string {
	for _, want := range labelKeys {
		for _, m := range siblings {
			if m.key == want && m.value.isStr {
				return m.value.str
			}
		}
	}

	for _, m := range siblings {
		if m.key == urlKey || !m.value.isStr {
			continue
		}
		lower := strings.ToLower(m.key)
		if strings.Contains(lower, "alttext") {
			continue
		}
		for _, want := range labelKeys {
			if strings.Contains(lower, want) {
				return m.value.str
			}
		}
	}

	return ""
}
