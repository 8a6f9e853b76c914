package parser

import "net/url"

// ValueProvider resolves a concrete value for a form field so the
// crawler can submit forms deterministically without executing
// application logic. Implementations must be pure: the same inputs
// always produce the same value, or dedup breaks.
type ValueProvider interface {
	// Value returns the value to submit for the given field.
	// uri is the form's target, fieldID the field name, defaultValue
	// the value declared in the markup, declaredValues any predefined
	// options (select/radio), and attributes the remaining declared
	// field attributes (type, min, max, ...).
	Value(uri *url.URL, fieldID, defaultValue string, declaredValues []string, attributes map[string]string) string
}

// DefaultValueProvider produces fixed values per declared field type.
// Markup-declared defaults and predefined options always win over the
// synthetic values, so the crawl exercises the form the way the
// application expects.
type DefaultValueProvider struct{}

// Fixed values submitted for each field type when the markup declares
// no usable default.
const (
	defaultTextValue     = "webspider"
	defaultPasswordValue = "webspider1!"
	defaultNumberValue   = "1"
	defaultEmailValue    = "webspider@example.com"
	defaultURLValue      = "http://www.example.com"
	defaultDateValue     = "2025-01-01"
	defaultTimeValue     = "12:00"
	defaultColorValue    = "#ffffff"
	defaultPhoneValue    = "555-0100"
)

// Value implements ValueProvider.
func (DefaultValueProvider) Value(_ *url.URL, _ string, defaultValue string, declaredValues []string, attributes map[string]string) string {
	if defaultValue != "" {
		return defaultValue
	}
	if len(declaredValues) > 0 {
		return declaredValues[0]
	}

	switch attributes["type"] {
	case "password":
		return defaultPasswordValue
	case "number", "range":
		if minValue := attributes["min"]; minValue != "" {
			return minValue
		}
		return defaultNumberValue
	case "email":
		return defaultEmailValue
	case "url":
		return defaultURLValue
	case "date":
		return defaultDateValue
	case "time":
		return defaultTimeValue
	case "color":
		return defaultColorValue
	case "tel":
		return defaultPhoneValue
	case "checkbox":
		return "on"
	default:
		return defaultTextValue
	}
}
