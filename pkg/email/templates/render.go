package templates

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/a-h/templ"
)

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.924 generate

// Render takes a templ.Component and renders it to a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// detail is one row of the payload table in NotificationEmail.
type detail struct {
	Label string
	Value string
}

func payloadString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// detailRows lists every payload field except title and body, sorted by key.
func detailRows(data map[string]any) []detail {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k != "title" && k != "body" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	rows := make([]detail, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, detail{Label: humanize(k), Value: fmt.Sprint(data[k])})
	}
	return rows
}

// humanize turns "document_id" into "Document id".
func humanize(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
