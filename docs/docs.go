// Package docs registers the OpenAPI description served at /swagger.
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
        "/alerts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Alerts"],
                "summary": "List live alerts",
                "parameters": [
                    {"type": "string", "description": "Filter by status", "name": "status", "in": "query"},
                    {"type": "string", "description": "Created at or after", "name": "from", "in": "query"},
                    {"type": "string", "description": "Created at or before", "name": "to", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "List of alerts"}, "400": {"description": "Invalid filter"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Alerts"],
                "summary": "Submit alert",
                "parameters": [
                    {"description": "Alert details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SubmitAlertRequest"}}
                ],
                "responses": {"201": {"description": "Alert created"}, "400": {"description": "Validation error"}, "429": {"description": "Too many requests"}}
            }
        },
        "/alerts/mine": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Alerts"],
                "summary": "List my alerts",
                "responses": {"200": {"description": "List of alerts"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/alerts/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Alerts"],
                "summary": "Get alert by ID",
                "parameters": [{"type": "string", "description": "Alert ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Alert details"}, "404": {"description": "Alert not found"}}
            }
        },
        "/alerts/{id}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Alerts"],
                "summary": "Update alert status",
                "parameters": [
                    {"type": "string", "description": "Alert ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TransitionRequest"}}
                ],
                "responses": {"200": {"description": "Status updated"}, "403": {"description": "Staff only"}, "404": {"description": "Alert not found"}, "409": {"description": "Transition not allowed"}}
            }
        },
        "/archive": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Archive"],
                "summary": "List archived alerts",
                "parameters": [
                    {"type": "string", "description": "Sort order", "name": "sort", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "Archived alerts"}, "403": {"description": "Staff only"}}
            }
        },
        "/archive/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Archive"],
                "summary": "Get archived alert",
                "parameters": [{"type": "string", "description": "Alert ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Archived alert"}, "404": {"description": "Archived alert not found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Archive"],
                "summary": "Delete archived alert",
                "parameters": [{"type": "string", "description": "Alert ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "Deleted"}, "403": {"description": "Admin only"}, "404": {"description": "Archived alert not found"}}
            }
        },
        "/presence": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Presence"],
                "summary": "Responder locations",
                "responses": {"200": {"description": "Responder positions"}, "403": {"description": "Staff only"}}
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get current user",
                "responses": {"200": {"description": "Current user"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/users/me/push-tokens": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Register push token",
                "parameters": [
                    {"description": "Device token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterPushTokenRequest"}}
                ],
                "responses": {"200": {"description": "Token registered"}, "400": {"description": "Invalid token"}}
            }
        },
        "/realtime/ws": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Realtime"],
                "summary": "Realtime WebSocket session",
                "parameters": [{"type": "string", "description": "Access token", "name": "token", "in": "query"}],
                "responses": {"101": {"description": "Switching protocols"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/realtime/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/event-stream"],
                "tags": ["Realtime"],
                "summary": "Realtime event stream",
                "parameters": [{"type": "string", "description": "Access token", "name": "token", "in": "query"}],
                "responses": {"200": {"description": "Event stream"}, "401": {"description": "Unauthorized"}}
            }
        }
    },
    "definitions": {
        "dto.SubmitAlertRequest": {
            "type": "object",
            "properties": {
                "reporterName": {"type": "string"},
                "reporterPhone": {"type": "string"},
                "address": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "incidentType": {"type": "string"},
                "description": {"type": "string"},
                "patientCount": {"type": "integer"},
                "attachmentUrl": {"type": "string"}
            }
        },
        "dto.TransitionRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "dto.RegisterPushTokenRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {
                "token": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "EMS Dispatch API",
	Description:      "Emergency alert intake, lifecycle and realtime dispatch.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
