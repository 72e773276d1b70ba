package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Turmas API",
        "description": "Course catalog, class sections and seat enrollment",
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
        {"name": "Auth", "description": "Registration and login"},
        {"name": "Users", "description": "Profiles and account removal"},
        {"name": "Courses", "description": "Course catalog"},
        {"name": "Favorites", "description": "Favorite courses of the signed-in user"},
        {"name": "Sections", "description": "Class sections and seat ledger"},
        {"name": "Enrollment", "description": "Self-service enrollment"},
        {"name": "CPF", "description": "CPF masking and validation"},
        {"name": "Metrics", "description": "Operational counters"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email or CPF already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with email or CPF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Current profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Users"],
                "summary": "Update profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users/{email}": {
            "delete": {
                "tags": ["Users"],
                "summary": "Remove account",
                "description": "Staff or the account owner. Frees held seats and drops favorites.",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "email", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Course detail with sections",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}/sections": {
            "get": {
                "tags": ["Courses"],
                "summary": "Sections offered for a course",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/me/favorites": {
            "get": {
                "tags": ["Favorites"],
                "summary": "Favorite courses",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/me/favorites/{courseId}": {
            "post": {
                "tags": ["Favorites"],
                "summary": "Toggle favorite",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "courseId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Create section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get section",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Sections"],
                "summary": "Update section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSectionRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete section",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/sections/{id}/seats": {
            "get": {
                "tags": ["Sections"],
                "summary": "Seat summary",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/{id}/enroll": {
            "post": {
                "tags": ["Enrollment"],
                "summary": "Enroll signed-in user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already enrolled or no vacancy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Enrollment"],
                "summary": "Leave section",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/{id}/students/{email}": {
            "delete": {
                "tags": ["Sections"],
                "summary": "Remove student from roster",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "email", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/{id}/roster": {
            "get": {
                "tags": ["Sections"],
                "summary": "Export roster",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "Roster file"}}
            }
        },
        "/cpf/format": {
            "get": {
                "tags": ["CPF"],
                "summary": "Mask CPF",
                "parameters": [{"name": "value", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/cpf/validate": {
            "get": {
                "tags": ["CPF"],
                "summary": "Validate CPF",
                "parameters": [{"name": "value", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Metrics summary",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["name", "email", "password", "confirmPassword"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirmPassword": {"type": "string"},
                "role": {"type": "string", "enum": ["funcionario", "responsavel", "aluno"]},
                "cpf": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["identifier", "password"],
            "properties": {
                "identifier": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "avatar": {"type": "string"},
                "cpf": {"type": "string"}
            }
        },
        "CreateSectionRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "courseId": {"type": "string"},
                "course": {"type": "string"},
                "professor": {"type": "string"},
                "vacancies": {"type": "integer"},
                "schedule": {"type": "string"}
            }
        },
        "UpdateSectionRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "courseId": {"type": "string"},
                "course": {"type": "string"},
                "professor": {"type": "string"},
                "vacancies": {"type": "integer"},
                "capacity": {"type": "integer"},
                "schedule": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
