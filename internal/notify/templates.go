package notify

import (
	"fmt"
	"strings"

	"tender-engine/pkg/categories"
)

const (
	matchSubjectTemplate = "Nouvelle demande: {{title}}"
	matchBodyTemplate    = "Nouvelle demande près de chez vous: {{title}} ({{category}}){{location}}. " +
		"Ouvrez l'application pour envoyer votre devis."
)

// RenderMessage builds the subject and body for a match alert.
func RenderMessage(p Payload) (subject, body string) {
	location := ""
	if p.TenderCity != "" {
		location = " à " + p.TenderCity
	}

	data := map[string]interface{}{
		"title":    p.TenderTitle,
		"category": categories.Label(p.TenderCategory),
		"location": location,
	}

	return renderTemplate(matchSubjectTemplate, data), renderTemplate(matchBodyTemplate, data)
}

// renderTemplate substitutes {{placeholder}} occurrences and strips
// any placeholders left unresolved.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
