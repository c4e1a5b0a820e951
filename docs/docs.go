// Package docs holds the OpenAPI description served under /docs.
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
        "/api/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register user",
                "parameters": [{"description": "register", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.registerReq"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "description": "Returns an access token and sets the refresh token cookie.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [{"description": "login", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.loginReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "New access token from the refresh cookie",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}}}
            }
        },
        "/api/auth/user": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Delete the current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/user/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Users may rename themselves; admins may edit anyone, including role.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a user",
                "parameters": [
                    {"type": "string", "description": "user id", "name": "id", "in": "path", "required": true},
                    {"description": "patch", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.updateUserReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.errorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users (admin)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/forgot-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["password"],
                "summary": "Request a password reset email",
                "parameters": [{"description": "email", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.forgotReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/reset-password/{token}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["password"],
                "summary": "Set a new password with a reset token",
                "parameters": [
                    {"type": "string", "description": "reset token from the email", "name": "token", "in": "path", "required": true},
                    {"description": "new password", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.resetReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/google-login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["federated"],
                "summary": "Sign in with a federated identity token",
                "parameters": [{"description": "identity token", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.googleLoginReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/google/url": {
            "get": {
                "produces": ["application/json"],
                "tags": ["federated"],
                "summary": "Google authorization URL with a signed state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/api/auth/google/exchange": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["federated"],
                "summary": "Finish the Google authorization-code flow",
                "parameters": [{"description": "code and state from the redirect", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.exchangeReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorEnvelope"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["ops"],
                "summary": "Liveness and dependency check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "http.envelope": {"type": "object", "properties": {"message": {"type": "string"}, "data": {}}},
        "http.errorEnvelope": {"type": "object", "properties": {"message": {"type": "string"}, "code": {"type": "string"}}},
        "http.registerReq": {"type": "object", "required": ["email", "name", "password"], "properties": {"email": {"type": "string"}, "name": {"type": "string"}, "password": {"type": "string"}, "role": {"type": "string"}}},
        "http.loginReq": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "http.updateUserReq": {"type": "object", "properties": {"name": {"type": "string"}, "role": {"type": "string"}}},
        "http.forgotReq": {"type": "object", "required": ["email"], "properties": {"email": {"type": "string"}}},
        "http.resetReq": {"type": "object", "required": ["password"], "properties": {"password": {"type": "string"}}},
        "http.googleLoginReq": {"type": "object", "properties": {"token": {"type": "string"}}},
        "http.exchangeReq": {"type": "object", "required": ["code", "state"], "properties": {"code": {"type": "string"}, "state": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Auth API",
	Description:      "Registration, login, refresh tokens, password reset and federated sign-in.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
