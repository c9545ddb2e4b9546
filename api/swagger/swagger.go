package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PAL Track API",
        "description": "Peer-assisted learning enrollment, application and session tracking",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login, token refresh and password management"},
        {"name": "Catalog", "description": "Programs, years and courses"},
        {"name": "Registration", "description": "Student registration wizard"},
        {"name": "Applications", "description": "Tutor application wizard and review"},
        {"name": "Sessions", "description": "Tutoring session lifecycle and feedback"},
        {"name": "Users", "description": "Administrative user management and bulk import"},
        {"name": "Settings", "description": "Runtime rule administration"},
        {"name": "Export", "description": "CSV and PDF downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/programs": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List programs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/programs/{id}/years": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List years of a program",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List courses eligible for a program and year",
                "parameters": [
                    {"name": "program_id", "in": "query", "required": true, "type": "string"},
                    {"name": "year_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Add a course to the catalog",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Course"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registration/start": {
            "post": {
                "tags": ["Registration"],
                "summary": "Begin the registration wizard",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WizardEnvelope"}}
                }
            }
        },
        "/registration/next": {
            "post": {
                "tags": ["Registration"],
                "summary": "Validate the current step and advance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WizardStepRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WizardEnvelope"}}
                }
            }
        },
        "/registration/submit": {
            "post": {
                "tags": ["Registration"],
                "summary": "Finalize the registration and create the account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WizardStepRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/start": {
            "post": {
                "tags": ["Applications"],
                "summary": "Begin the tutor application wizard",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WizardEnvelope"}},
                    "409": {"description": "An open application already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/approve": {
            "post": {
                "tags": ["Applications"],
                "summary": "Approve a pending application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already reviewed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/reject": {
            "post": {
                "tags": ["Applications"],
                "summary": "Reject a pending application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already reviewed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Schedule a tutoring session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Tutor not approved for course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/feedback": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Attach learner feedback to a completed session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeedbackRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Feedback already submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/import": {
            "post": {
                "tags": ["Users"],
                "summary": "Bulk import users from CSV",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ImportResult"}}
                }
            }
        },
        "/settings/{key}": {
            "put": {
                "tags": ["Settings"],
                "summary": "Update a runtime setting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "key", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/applications": {
            "get": {
                "tags": ["Export"],
                "summary": "Export tutor applications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Document"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "program_id": {"type": "string"},
                "year_id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "cross_listed": {"type": "boolean"}
            },
            "required": ["program_id", "year_id", "code", "name"]
        },
        "WizardStepRequest": {
            "type": "object",
            "properties": {
                "state": {"type": "object"},
                "form": {"type": "object"}
            }
        },
        "WizardEnvelope": {
            "type": "object",
            "properties": {
                "state": {"type": "object"},
                "errors": {"type": "object"}
            }
        },
        "ScheduleSessionRequest": {
            "type": "object",
            "properties": {
                "tutor_id": {"type": "string"},
                "learner_id": {"type": "string"},
                "course_id": {"type": "string"},
                "scheduled_at": {"type": "string"},
                "duration_minutes": {"type": "integer"}
            },
            "required": ["tutor_id", "learner_id", "course_id", "scheduled_at", "duration_minutes"]
        },
        "FeedbackRequest": {
            "type": "object",
            "properties": {
                "rating": {"type": "integer"},
                "satisfaction": {"type": "integer"},
                "helpfulness": {"type": "integer"},
                "comment": {"type": "string"}
            },
            "required": ["rating"]
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "success_count": {"type": "integer"},
                "error_count": {"type": "integer"},
                "errors": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/RowError"}
                }
            }
        },
        "RowError": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "UpdateSettingRequest": {
            "type": "object",
            "properties": {
                "value": {"type": "string"}
            },
            "required": ["value"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
