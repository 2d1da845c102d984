// Package docs registers the OpenAPI document served at /swagger/*any.
// Regenerate with: swag init -g cmd/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/auth/sign-up": {
            "post": {"tags": ["auth"], "summary": "Sign up", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/auth/sign-in": {
            "post": {"tags": ["auth"], "summary": "Sign in", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/devices": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["devices"], "summary": "List devices", "produces": ["application/json"],
                "responses": {"200": {"description": "count, devices"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/devices/{id}/latest": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["devices"], "summary": "Latest snapshot", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Device id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/devices/{id}/reports": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["devices"], "summary": "Report history", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Device id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "description": "End of range", "name": "to", "in": "query"},
                    {"type": "integer", "description": "Maximum rows", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "count, reports"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/devices/{id}/config": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["devices"], "summary": "Device configuration", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Device id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/devices/{id}/schedule": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["devices"], "summary": "Active schedule", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Device id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Instant (RFC3339)", "name": "at", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/collectors": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["system"], "summary": "Collector status", "produces": ["application/json"],
                "responses": {"200": {"description": "count, collectors"}}}
        },
        "/api/v1/logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["logs"], "summary": "List logs", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "description": "End of range", "name": "to", "in": "query"},
                    {"type": "string", "description": "Event type", "name": "type", "in": "query"},
                    {"type": "string", "description": "Device id", "name": "device", "in": "query"}
                ],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "Bad Request"}}}
        },
        "/ws": {
            "get": {"tags": ["devices"], "summary": "Latest snapshot stream",
                "parameters": [
                    {"type": "string", "description": "Device id", "name": "device", "in": "query", "required": true},
                    {"type": "string", "description": "Push interval", "name": "interval", "in": "query"}
                ],
                "responses": {"101": {"description": "Switching Protocols"}}}
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Boiler Collector API",
	Description:      "Read-only access to recorded thermostat telemetry.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
