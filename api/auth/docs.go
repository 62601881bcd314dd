// Package auth registers the OpenAPI document served at /swagger/.
//
// Regenerate with: swag init -g internal/auth/http/router.go -o api/auth
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/stockdesk"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "description": "Exchange email and password for a signed access token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "email, password",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "token", "schema": {"$ref": "#/definitions/authsdk.LoginResponse"}},
                    "400": {"description": "malformed body", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "401": {"description": "invalid email or password", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "403": {"description": "account disabled", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the profile of the account the bearer token was issued to.",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "id, username, email, role", "schema": {"$ref": "#/definitions/authsdk.UserProfile"}},
                    "401": {"description": "invalid or missing access token", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "403": {"description": "account disabled", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/auth/verify-face": {
            "post": {
                "description": "Compares a captured still frame with the face enrolled for email.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Verify a face",
                "parameters": [
                    {
                        "description": "email, image (base64 data URL)",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.VerifyFaceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "verified, error, details", "schema": {"$ref": "#/definitions/authsdk.VerifyFaceResponse"}},
                    "400": {"description": "malformed body or image", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/auth/register/user": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates an account. USER accounts must enrol a face image. Requires the ADMIN role.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Register a user",
                "parameters": [
                    {
                        "description": "username, email, password, role, status, faceImage",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.RegisterUserRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "id", "schema": {"$ref": "#/definitions/authsdk.RegisterUserResponse"}},
                    "400": {"description": "validation failed", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "401": {"description": "invalid or missing access token", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "403": {"description": "caller is not an administrator", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "409": {"description": "email or username taken", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.APIError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "authsdk.LoginResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "authsdk.UserProfile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "authsdk.VerifyFaceRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "image": {"type": "string"}}
        },
        "authsdk.VerifyFaceResponse": {
            "type": "object",
            "properties": {
                "verified": {"type": "boolean"},
                "error": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "authsdk.RegisterUserRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"},
                "status": {"type": "string"},
                "faceImage": {"type": "string"}
            }
        },
        "authsdk.RegisterUserResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}}
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {"database": {"type": "string"}, "signer": {"type": "string"}}
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Stockdesk Authentication Service API",
	Description:      "Password login, face verification and account registration for the stockdesk console.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
