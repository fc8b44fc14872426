package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Elective API",
        "description": "Elective assignment status tracking and teacher/lesson recommendations.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Electives", "description": "Per-class elective quota status"},
        {"name": "Suggestions", "description": "Ranked lesson/teacher recommendations"},
        {"name": "Observability", "description": "Health checks and metrics"}
    ],
    "paths": {
        "/electives/status": {
            "get": {
                "tags": ["Electives"],
                "summary": "List elective status for every class",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/status/{classId}": {
            "get": {
                "tags": ["Electives"],
                "summary": "Elective status for one class",
                "parameters": [{"name": "classId", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Status not computed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/electives/status/{classId}/refresh": {
            "post": {
                "tags": ["Electives"],
                "summary": "Recompute elective status for one class",
                "parameters": [{"name": "classId", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/electives/status/refresh": {
            "post": {
                "tags": ["Electives"],
                "summary": "Recompute elective status for all classes",
                "responses": {"200": {"description": "Refresh summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/incomplete": {
            "get": {
                "tags": ["Electives"],
                "summary": "Classes below their elective quota",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/statistics": {
            "get": {
                "tags": ["Electives"],
                "summary": "Elective completion statistics",
                "responses": {"200": {"description": "OK; meta.cache_hit reports cache use", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/completion": {
            "get": {
                "tags": ["Electives"],
                "summary": "Overall elective completion percentage",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/distribution": {
            "get": {
                "tags": ["Electives"],
                "summary": "Elective completion per grade",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/export": {
            "get": {
                "tags": ["Electives"],
                "summary": "Export elective status report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/electives/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Aggregated engine metrics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/suggestions/{classId}": {
            "get": {
                "tags": ["Suggestions"],
                "summary": "Cached suggestions for a class",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "integer"},
                    {"name": "includeApplied", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/suggestions/{classId}/generate": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Generate elective suggestions for a class",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CriteriaOverrides"}}
                ],
                "responses": {
                    "200": {"description": "Ranked suggestions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/electives/suggestions/score": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Score a single class/lesson/teacher candidate",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScoreSuggestionRequest"}}],
                "responses": {"200": {"description": "Score breakdown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/suggestions/apply/{id}": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Apply a suggestion as an elective assignment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "data.applied is false when nothing was claimed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/electives/suggestions/refresh": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Regenerate the suggestion cache for every incomplete class",
                "parameters": [{"name": "async", "in": "query", "type": "boolean"}],
                "responses": {
                    "200": {"description": "Refresh summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Refresh queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CriteriaOverrides": {
            "type": "object",
            "properties": {
                "prefer_low_workload": {"type": "boolean"},
                "prefer_popular": {"type": "boolean"},
                "avoid_conflicts": {"type": "boolean"},
                "limit": {"type": "integer", "minimum": 1, "maximum": 100}
            }
        },
        "ScoreSuggestionRequest": {
            "type": "object",
            "required": ["class_id", "lesson_id", "teacher_id"],
            "properties": {
                "class_id": {"type": "integer"},
                "lesson_id": {"type": "integer"},
                "teacher_id": {"type": "integer"},
                "prefer_low_workload": {"type": "boolean"},
                "prefer_popular": {"type": "boolean"},
                "avoid_conflicts": {"type": "boolean"}
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
