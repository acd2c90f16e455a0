// Package docs registers the OpenAPI document served under /api/v1/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Registration request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.CredentialsRequest"}}
                ],
                "responses": {
                    "201": {"description": "User registered successfully", "schema": {"$ref": "#/definitions/auth.AuthResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/auth.ErrorResponse"}},
                    "409": {"description": "User already exists", "schema": {"$ref": "#/definitions/auth.ErrorResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Login user",
                "parameters": [
                    {"description": "Login request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.CredentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/auth.AuthResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/auth.ErrorResponse"}}
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Refresh tokens",
                "parameters": [
                    {"description": "Refresh request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/auth.AuthResponse"}},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/auth.ErrorResponse"}}
                }
            }
        },
        "/api/shorten": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Authenticated callers may set an alias and link options. Anonymous callers get a demo link.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "Create a short link",
                "parameters": [
                    {"description": "Link creation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CreateLinkRequest"}}
                ],
                "responses": {
                    "201": {"description": "Link created successfully", "schema": {"$ref": "#/definitions/http.LinkResponse"}},
                    "400": {"description": "Invalid request data"},
                    "401": {"description": "Authentication required for link options"},
                    "409": {"description": "Alias already exists"},
                    "429": {"description": "Too many anonymous requests"}
                }
            }
        },
        "/api/links": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "List my links",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Page size", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ListLinksResponse"}},
                    "401": {"description": "Authentication required"}
                }
            }
        },
        "/api/links/claim": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["Links"],
                "summary": "Claim an anonymous link",
                "parameters": [
                    {"description": "Claim request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ClaimLinkRequest"}}
                ],
                "responses": {
                    "204": {"description": "Link claimed"},
                    "404": {"description": "Link not found"},
                    "409": {"description": "Link already owned"}
                }
            }
        },
        "/api/links/{shortCode}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Links"],
                "summary": "Deactivate a link",
                "parameters": [
                    {"type": "string", "description": "Short code", "name": "shortCode", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Link deactivated"},
                    "401": {"description": "Authentication required"},
                    "404": {"description": "Link not found"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/{shortCode}": {
            "get": {
                "tags": ["Redirect"],
                "summary": "Follow a short link",
                "parameters": [
                    {"type": "string", "description": "Short code", "name": "shortCode", "in": "path", "required": true},
                    {"type": "string", "name": "utm_source", "in": "query"},
                    {"type": "string", "name": "utm_medium", "in": "query"},
                    {"type": "string", "name": "utm_campaign", "in": "query"},
                    {"type": "string", "name": "utm_term", "in": "query"},
                    {"type": "string", "name": "utm_content", "in": "query"}
                ],
                "responses": {
                    "302": {"description": "Redirect to the destination or a status page"}
                }
            }
        }
    },
    "definitions": {
        "auth.CredentialsRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "auth.AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "user": {"$ref": "#/definitions/auth.UserInfo"}
            }
        },
        "auth.UserInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"}
            }
        },
        "auth.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "domain.UTMParameters": {
            "type": "object",
            "properties": {
                "utm_source": {"type": "string"},
                "utm_medium": {"type": "string"},
                "utm_campaign": {"type": "string"},
                "utm_term": {"type": "string"},
                "utm_content": {"type": "string"}
            }
        },
        "http.CreateLinkRequest": {
            "type": "object",
            "properties": {
                "original_url": {"type": "string"},
                "custom_alias": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "expiry_date": {"type": "string", "format": "date-time"},
                "click_limit": {"type": "integer"},
                "password": {"type": "string"},
                "campaign_id": {"type": "integer"},
                "utm_parameters": {"$ref": "#/definitions/domain.UTMParameters"}
            }
        },
        "http.LinkResponse": {
            "type": "object",
            "properties": {
                "short_code": {"type": "string"},
                "short_url": {"type": "string"},
                "original_url": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "favicon_url": {"type": "string"},
                "qr_code_url": {"type": "string"},
                "expiry_date": {"type": "string", "format": "date-time"},
                "click_limit": {"type": "integer"},
                "has_password": {"type": "boolean"},
                "campaign_id": {"type": "integer"},
                "utm_parameters": {"$ref": "#/definitions/domain.UTMParameters"},
                "is_active": {"type": "boolean"},
                "demo": {"type": "boolean"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "http.ListLinksResponse": {
            "type": "object",
            "properties": {
                "links": {"type": "array", "items": {"$ref": "#/definitions/http.LinkResponse"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        },
        "http.ClaimLinkRequest": {
            "type": "object",
            "properties": {
                "short_code": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "database_status": {"type": "string"},
                "uptime": {"type": "string"},
                "analytics": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Authorization header. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "LinkLab URL Shortener API",
	Description:      "URL shortener with redirect analytics, anonymous demo links and link claiming.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
