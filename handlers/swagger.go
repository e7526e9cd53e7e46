package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the token service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
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
    <title>auth-service — Swagger</title>
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

// Minimal OpenAPI document describing the session token endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "auth-service", "version": "v0.1.0" },
  "paths": {
    "/auth/token": {
      "post": {
        "summary": "Issue a session token for a user/device/session tuple",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["userId","sessionType"],"properties":{"userId":{"type":"string"},"ipAddress":{"type":"string"},"sessionType":{"type":"string"}}}}}},
        "responses": { "200": { "description": "token issued or existing live token returned" }, "503": { "description": "token store unavailable" } }
      }
    },
    "/auth/verify": {
      "post": {
        "summary": "Verify a session token",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["token"],"properties":{"token":{"type":"string"}}}}}},
        "responses": { "200": { "description": "valid; identity fields returned" }, "401": { "description": "invalid; reason returned" }, "503": { "description": "token store unavailable" } }
      }
    },
    "/auth/revoke": {
      "post": {
        "summary": "Revoke a session token ahead of its expiry",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["token"],"properties":{"token":{"type":"string"}}}}}},
        "responses": { "200": { "description": "revoked" }, "503": { "description": "token store unavailable" } }
      }
    },
    "/api/v1/session": {
      "get": { "summary": "Return the identity behind the presented Bearer token", "responses": { "200": { "description": "session identity" }, "401": { "description": "invalid token" } } }
    },
    "/api/utils/status": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "alive" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
