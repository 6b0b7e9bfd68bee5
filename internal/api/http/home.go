package httpapi

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/meteo-forecast-service/internal/weather"
)

//go:embed templates/home.html
var templatesFS embed.FS

var homeTemplate = template.Must(template.ParseFS(templatesFS, "templates/home.html"))

// renderHome writes the HTML landing page listing all stored records.
func renderHome(c *fiber.Ctx, records []weather.Record) error {
	var buf bytes.Buffer
	if err := homeTemplate.Execute(&buf, records); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
