// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/quotes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["quotes"],
                "summary": "Compare premiums",
                "parameters": [
                    {"description": "Comparison form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.QuoteInput"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/regions/{plz}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["quotes"],
                "summary": "Resolve a postal code",
                "parameters": [
                    {"type": "string", "description": "Swiss postal code", "name": "plz", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/applicants": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["applicants"],
                "summary": "Start onboarding",
                "description": "Creates a draft applicant and sets the kvg_applicant session cookie.",
                "parameters": [
                    {"description": "Personal data and chosen offer", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ApplicantInput"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/applicants/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["applicants"],
                "summary": "Get an applicant",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["applicants"],
                "summary": "Update personal data",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true},
                    {"description": "Personal data and chosen offer", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ApplicantInput"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/applicants/{id}/documents": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List an applicant's documents",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload an identity document",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "id_front, id_back, insurance_card or other", "name": "kind", "in": "formData", "required": true},
                    {"type": "file", "description": "Document (jpg, png or pdf)", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/applicants/{id}/signature": {
            "get": {
                "produces": ["application/json"],
                "tags": ["signature"],
                "summary": "Latest signing request",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["signature"],
                "summary": "Send the application for e-signature",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/signature/callback": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["signature"],
                "summary": "Signing provider webhook",
                "parameters": [
                    {"type": "string", "description": "HMAC-SHA256 of the body", "name": "X-Signature", "in": "header", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/analytics/events": {
            "post": {
                "tags": ["analytics"],
                "summary": "Record a page view beacon",
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/admin/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Dashboard login",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/admin/logout": {
            "post": {
                "tags": ["admin"],
                "summary": "Dashboard logout",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/admin/applicants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List applicants",
                "parameters": [
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"},
                    {"type": "string", "description": "Search in name and email", "name": "q", "in": "query"},
                    {"type": "string", "description": "Status filter", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/applicants/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Applicant with documents and signing state",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "delete": {
                "tags": ["admin"],
                "summary": "Delete an applicant and all stored documents",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/admin/applicants/{id}/combined": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["admin"],
                "summary": "Download the combined identity PDF",
                "parameters": [
                    {"type": "string", "description": "Applicant ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/admin/documents/{id}": {
            "delete": {
                "tags": ["admin"],
                "summary": "Delete a document",
                "parameters": [
                    {"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/admin/documents/{id}/download": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["admin"],
                "summary": "Download a document",
                "parameters": [
                    {"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/admin/analytics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Page view summary",
                "parameters": [
                    {"type": "string", "description": "First day, YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "Last day (inclusive), YYYY-MM-DD", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "service.QuoteInput": {
            "type": "object",
            "properties": {
                "plz": {"type": "string"},
                "birth_date": {"type": "string"},
                "franchise": {"type": "integer"},
                "accident": {"type": "boolean"},
                "model": {"type": "string"},
                "current_insurer": {"type": "string"}
            }
        },
        "service.ApplicantInput": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "birth_date": {"type": "string"},
                "plz": {"type": "string"},
                "franchise": {"type": "integer"},
                "accident": {"type": "boolean"},
                "model": {"type": "string"},
                "current_insurer": {"type": "string"},
                "selected_insurer": {"type": "string"},
                "selected_premium": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "kvgportal API",
	Description:      "Premium comparison and onboarding for Swiss basic health insurance.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
