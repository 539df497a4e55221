package service

import (
	"strings"

	"github.com/oakline/mailcamp-backend/internal/model"
)

// RenderTemplate substitutes {{token}} placeholders with the given values.
// Unknown tokens are left in place.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

// SubscriberTokens exposes the subscriber fields available to campaign
// subject and body templates.
func SubscriberTokens(sub model.Subscriber) map[string]string {
	return map[string]string{
		"email":      sub.Email,
		"first_name": sub.FirstName,
		"last_name":  sub.LastName,
	}
}
