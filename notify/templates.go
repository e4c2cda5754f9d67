package notify

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// DefaultTemplates returns the built-in message body for every event type.
func DefaultTemplates() (map[EventType]string, error) {
	return parseTemplates(defaultTemplatesYAML)
}

func parseTemplates(data []byte) (map[EventType]string, error) {
	raw := make(map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	templates := make(map[EventType]string, len(raw))
	for key, body := range raw {
		eventType := EventType(key)
		if !eventType.Valid() {
			return nil, fmt.Errorf("template for unknown event %q", key)
		}
		templates[eventType] = body
	}
	for _, eventType := range EventTypes {
		if _, ok := templates[eventType]; !ok {
			return nil, fmt.Errorf("missing template for %s", eventType)
		}
	}
	return templates, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Render substitutes {{placeholder}} markers with payload values. Markers without a value are
// left in place so a typo in an edited template is visible in the delivered message.
func Render(body string, payload Payload) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(marker string) string {
		key := placeholderPattern.FindStringSubmatch(marker)[1]
		if value, ok := payload[key]; ok {
			return value
		}
		return marker
	})
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
