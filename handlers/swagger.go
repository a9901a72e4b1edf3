package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the course service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>course-service - Swagger</title>
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
  "info": { "title": "course-service", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Course": {
        "type": "object",
        "properties": {
          "id": { "type": "string" },
          "name": { "type": "string" },
          "author": { "type": "string" },
          "tags": { "type": "array", "items": { "type": "string" } },
          "date": { "type": "string", "format": "date-time" },
          "isPublished": { "type": "boolean" }
        }
      }
    }
  },
  "paths": {
    "/api/courses": {
      "get": {
        "summary": "List courses",
        "parameters": [
          { "name": "name", "in": "query", "schema": { "type": "string" } },
          { "name": "author", "in": "query", "schema": { "type": "string" } },
          { "name": "tag", "in": "query", "schema": { "type": "array", "items": { "type": "string" } } },
          { "name": "isPublished", "in": "query", "schema": { "type": "boolean" } },
          { "name": "nameRegex", "in": "query", "schema": { "type": "string" } },
          { "name": "after", "in": "query", "schema": { "type": "string", "format": "date-time" } },
          { "name": "before", "in": "query", "schema": { "type": "string", "format": "date-time" } },
          { "name": "sort", "in": "query", "schema": { "type": "string" }, "example": "name,-date" },
          { "name": "limit", "in": "query", "schema": { "type": "integer" } },
          { "name": "skip", "in": "query", "schema": { "type": "integer" } },
          { "name": "fields", "in": "query", "schema": { "type": "string" }, "example": "name,tags" }
        ],
        "responses": { "200": { "description": "matching courses" }, "400": { "description": "invalid filter" } }
      },
      "post": {
        "summary": "Create a course",
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Course" } } } },
        "responses": { "201": { "description": "created course" }, "400": { "description": "invalid body" } }
      }
    },
    "/api/courses/{id}": {
      "get": { "summary": "Get a course", "responses": { "200": { "description": "course" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update selected fields of a course", "responses": { "200": { "description": "saved course" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a course", "responses": { "200": { "description": "number of removed courses" } } }
    },
    "/api/courses/export": {
      "post": { "summary": "Export matching courses to object storage", "responses": { "201": { "description": "snapshot key and download url" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
