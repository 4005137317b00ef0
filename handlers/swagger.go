package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the site API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
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
    <title>gazra-site - Swagger</title>
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
  "info": { "title": "gazra-site", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Result": {"type":"object","properties":{"success":{"type":"boolean"},"id":{"type":"string"},"data":{},"error":{"type":"string"}}}
    },
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } }
  },
  "paths": {
    "/api/{collection}": {
      "get": {
        "summary": "List a public collection (events, cafeMenu, courses)",
        "parameters": [
          {"name":"collection","in":"path","required":true,"schema":{"type":"string"}},
          {"name":"where","in":"query","schema":{"type":"string"},"description":"field==value, field>=value, field in a,b, field array-contains x. Values are strings unless typed as int:4, float:3.5, bool:true or time:2025-04-01"},
          {"name":"orderBy","in":"query","schema":{"type":"string"}},
          {"name":"dir","in":"query","schema":{"type":"string","enum":["asc","desc"]}},
          {"name":"limit","in":"query","schema":{"type":"integer"}}
        ],
        "responses": { "200": { "description": "records" }, "400": { "description": "bad filter" }, "404": { "description": "unknown collection" } }
      },
      "post": {
        "summary": "Submit a form (cafeBookings, volunteers, enrollments, contactMessages)",
        "responses": { "201": { "description": "created id" }, "400": { "description": "validation failed" }, "409": { "description": "course is full" }, "429": { "description": "rate limited" } }
      }
    },
    "/api/{collection}/{id}": {
      "get": { "summary": "Get one public record", "responses": { "200": { "description": "record" }, "404": { "description": "Document not found" } } }
    },
    "/api/events/upcoming": {
      "get": { "summary": "Events dated today or later, soonest first", "responses": { "200": { "description": "records" } } }
    },
    "/media/{key}": {
      "get": { "summary": "Redirect to a presigned image URL", "responses": { "302": { "description": "redirect" } } }
    },
    "/admin/api/{collection}": {
      "get": { "summary": "List any collection", "security": [{"bearer":[]}], "responses": { "200": { "description": "Result with data array" } } },
      "post": { "summary": "Create a record", "security": [{"bearer":[]}], "responses": { "201": { "description": "Result with id" } } }
    },
    "/admin/api/{collection}/{id}": {
      "get": { "summary": "Get a record", "security": [{"bearer":[]}], "responses": { "200": { "description": "Result with data" }, "404": { "description": "Result with error" } } },
      "patch": { "summary": "Merge fields into a record", "security": [{"bearer":[]}], "responses": { "200": { "description": "Result" }, "404": { "description": "Document not found" } } },
      "delete": { "summary": "Delete a record", "security": [{"bearer":[]}], "responses": { "200": { "description": "Result" } } }
    },
    "/admin/api/media": {
      "post": { "summary": "Upload an image (multipart: file, collection)", "security": [{"bearer":[]}], "responses": { "201": { "description": "object key" } } }
    },
    "/auth/login": {
      "post": {
        "summary": "Back-office password login",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "access token" }, "401": { "description": "invalid credentials" } }
      }
    },
    "/auth/logout": {
      "post": { "summary": "Revoke the current access token", "security": [{"bearer":[]}], "responses": { "200": { "description": "logged out" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
