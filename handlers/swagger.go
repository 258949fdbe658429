package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the tutorial API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>tutor-server — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "tutor-server", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Tutorial": { "type": "object", "required": ["language", "email"], "additionalProperties": true,
        "properties": { "_id": {"type":"string"}, "language": {"type":"string"}, "email": {"type":"string"}, "review": {"type":"integer"}, "book": {"type":"array","items":{"type":"string"}}, "image": {"type":"string"} } },
      "Message": { "type": "object", "properties": { "message": {"type":"string"} } }
    }
  },
  "paths": {
    "/tutorials": { "get": { "summary": "List all tutorials", "responses": { "200": { "description": "array of tutorials" } } } },
    "/tutorials-by-language/{lang}": { "get": { "summary": "Case-insensitive language substring search", "parameters": [{"name":"lang","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "array of tutorials" } } } },
    "/tutorial/{id}": {
      "get": { "summary": "Get a tutorial", "responses": { "200": { "description": "tutorial" }, "400": { "description": "invalid tutorial id" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update fields of an owned tutorial", "security": [{"bearer":[]}], "responses": { "200": { "description": "update result" }, "401": { "description": "unauthorized access" }, "403": { "description": "forbidden access" } } },
      "delete": { "summary": "Delete an owned tutorial", "security": [{"bearer":[]}], "responses": { "200": { "description": "delete result" }, "401": { "description": "unauthorized access" }, "403": { "description": "forbidden access" } } }
    },
    "/tutorial/{id}/review": { "patch": { "summary": "Add one review", "responses": { "200": { "description": "review added" }, "404": { "description": "not found" } } } },
    "/tutorial/{id}/image": {
      "put": { "summary": "Upload a cover image (multipart field file)", "security": [{"bearer":[]}], "responses": { "200": { "description": "stored object key" } } },
      "get": { "summary": "Redirect to the cover image", "responses": { "302": { "description": "redirect" }, "404": { "description": "no cover" } } }
    },
    "/add-tutorials": { "post": { "summary": "Create a tutorial", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Tutorial"} } } }, "responses": { "201": { "description": "insert result" }, "400": { "description": "validation failed" } } } },
    "/book-tutorial": { "post": { "summary": "Book a tutorial", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"tutorialId":{"type":"string"},"userEmail":{"type":"string"}}} } } }, "responses": { "200": { "description": "booked" }, "400": { "description": "already booked" } } } },
    "/my-tutorials/{email}": { "get": { "summary": "Tutorials owned by the caller", "security": [{"bearer":[]}], "responses": { "200": { "description": "array of tutorials" }, "401": { "description": "unauthorized access" }, "403": { "description": "forbidden access" } } } },
    "/my-booked-tutorials/{email}": { "get": { "summary": "Tutorials booked by the caller", "security": [{"bearer":[]}], "responses": { "200": { "description": "array of tutorials" }, "401": { "description": "unauthorized access" }, "403": { "description": "forbidden access" } } } },
    "/stats": { "get": { "summary": "Collection totals", "responses": { "200": { "description": "stats" } } } },
    "/me": { "get": { "summary": "Caller profile", "security": [{"bearer":[]}], "responses": { "200": { "description": "user or principal" } } } },
    "/logout": { "post": { "summary": "Revoke the presented token", "security": [{"bearer":[]}], "responses": { "200": { "description": "logged out" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
