package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Planner API",
        "description": "Builds conflict-free weekly timetables from a course catalog",
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
        {"name": "Catalog", "description": "Courses and their candidate sessions"},
        {"name": "Preferences", "description": "Free days and avoided time windows"},
        {"name": "Timetables", "description": "Generation, saved timetables and exports"}
    ],
    "paths": {
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List courses",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get course with sessions",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Catalog"],
                "summary": "Create or replace a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertCourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session id owned by another course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/import": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Import course and session CSV files",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "courses", "in": "formData", "required": true, "type": "file"},
                    {"name": "sessions", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Imported", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed CSV row", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "List preferences",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Preferences"],
                "summary": "Add a preference",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePreferenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/preferences/{id}": {
            "patch": {
                "tags": ["Preferences"],
                "summary": "Toggle a preference or change its priority",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePreferenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Preferences"],
                "summary": "Delete a preference",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate conflict-free timetables",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetablesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Found timetables, possibly none", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List saved timetables",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timetables"],
                "summary": "Save a timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlapping or unknown sessions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a saved timetable",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete a saved timetable",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/timetables/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a saved timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "SessionRequest": {
            "type": "object",
            "required": ["id", "category", "start", "end"],
            "properties": {
                "id": {"type": "string"},
                "category": {"type": "string", "enum": ["LECTURE", "PRACTICAL", "SEMINAR", "OTHER"]},
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "start": {"type": "string", "example": "08:00"},
                "end": {"type": "string", "example": "09:30"},
                "durationHours": {"type": "number"},
                "recurrence": {"type": "string", "enum": ["EVERY_WEEK", "ODD_WEEK", "EVEN_WEEK", "ONE_TIME"]},
                "capacityCurrent": {"type": "integer"},
                "capacityMax": {"type": "integer"},
                "room": {"type": "string"},
                "instructor": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "UpsertCourseRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "neededHours": {"type": "object", "additionalProperties": {"type": "number"}},
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/SessionRequest"}}
            }
        },
        "CreatePreferenceRequest": {
            "type": "object",
            "required": ["kind"],
            "properties": {
                "kind": {"type": "string", "enum": ["FREE_DAY", "AVOID_WINDOW"]},
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "priority": {"type": "integer"},
                "active": {"type": "boolean"}
            }
        },
        "UpdatePreferenceRequest": {
            "type": "object",
            "properties": {
                "priority": {"type": "integer"},
                "active": {"type": "boolean"}
            }
        },
        "GenerateTimetablesRequest": {
            "type": "object",
            "required": ["courseIds"],
            "properties": {
                "courseIds": {"type": "array", "items": {"type": "string"}},
                "maxResults": {"type": "integer", "minimum": 0, "maximum": 50},
                "preferences": {"type": "array", "items": {"$ref": "#/definitions/CreatePreferenceRequest"}},
                "includeStoredPreferences": {"type": "boolean"}
            }
        },
        "SaveTimetableRequest": {
            "type": "object",
            "required": ["label", "sessionIds"],
            "properties": {
                "label": {"type": "string"},
                "sessionIds": {"type": "array", "items": {"type": "string"}}
            }
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
