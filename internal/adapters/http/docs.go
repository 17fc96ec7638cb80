package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapexplorer/api"
)

const docsTitle = "Map Explorer API"

// swaggerUI renders the OpenAPI document at specURL; the assets come from a CDN.
const swaggerUI = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>%s - Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '%s', dom_id: '#swagger-ui', deepLinking: true, tryItOutEnabled: true});
  </script>
</body>
</html>`

// SetupDocs registers Swagger UI at /docs and the embedded OpenAPI document
// at /docs/openapi.yaml.
func SetupDocs(app *fiber.App) {
	page := fmt.Sprintf(swaggerUI, docsTitle, "/docs/openapi.yaml")

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(page)
	})
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(api.OpenAPI)
	})
}
