package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Subsidy Console Gateway",
        "description": "Session-scoped synchronization layer for the enterprise subsidy request console",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Sessions", "description": "Console session lifecycle and snapshot stream"},
        {"name": "SubsidyRequests", "description": "Request tables, approvals and configuration"},
        {"name": "Licenses", "description": "Activated learner licenses"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Enterprise API not configured"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Mount a console session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/MountSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Sessions"],
                "summary": "List the caller's console sessions",
                "security": [{"BearerAuth": []}],
                "parameters": [

                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get console session state",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Unmount a console session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/sessions/{id}/stream": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Stream session snapshots over a websocket",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "access_token", "in": "query", "type": "string"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/api/v1/sessions/{id}/requests/{channel}": {
            "get": {
                "tags": ["SubsidyRequests"],
                "summary": "Get a request table snapshot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "channel", "in": "path", "required": true, "type": "string", "enum": ["license", "coupon"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/{id}/requests/{channel}/query": {
            "put": {
                "tags": ["SubsidyRequests"],
                "summary": "Reconfigure a request table",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "channel", "in": "path", "required": true, "type": "string", "enum": ["license", "coupon"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FetchArgs"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/{id}/requests/{channel}/{requestId}/approve": {
            "post": {
                "tags": ["SubsidyRequests"],
                "summary": "Approve a subsidy request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "channel", "in": "path", "required": true, "type": "string", "enum": ["license", "coupon"]},
                    {"name": "requestId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/{id}/requests/{channel}/{requestId}/decline": {
            "post": {
                "tags": ["SubsidyRequests"],
                "summary": "Decline a subsidy request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "channel", "in": "path", "required": true, "type": "string", "enum": ["license", "coupon"]},
                    {"name": "requestId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeclineRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/{id}/overview/refresh": {
            "post": {
                "tags": ["SubsidyRequests"],
                "summary": "Refresh the pending request badges",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/{id}/configuration": {
            "patch": {
                "tags": ["SubsidyRequests"],
                "summary": "Update the subsidy request configuration",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateConfigurationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/{id}/licenses": {
            "get": {
                "tags": ["Licenses"],
                "summary": "Get the license table snapshot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/{id}/licenses/query": {
            "put": {
                "tags": ["Licenses"],
                "summary": "Reconfigure the license table",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FetchArgs"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "MountSessionRequest": {
            "type": "object",
            "properties": {
                "eligible_channels": {"type": "array", "items": {"type": "string", "enum": ["license", "coupon"]}}
            }
        },
        "SortBy": {
            "type": "object",
            "required": ["column_id"],
            "properties": {
                "column_id": {"type": "string"},
                "descending": {"type": "boolean"}
            }
        },
        "ColumnFilter": {
            "type": "object",
            "required": ["column_id"],
            "properties": {
                "column_id": {"type": "string"},
                "values": {"type": "array", "items": {"type": "string"}}
            }
        },
        "FetchArgs": {
            "type": "object",
            "properties": {
                "page_index": {"type": "integer", "minimum": 0},
                "page_size": {"type": "integer", "minimum": 0, "maximum": 500},
                "sort_by": {"type": "array", "items": {"$ref": "#/definitions/SortBy"}},
                "filters": {"type": "array", "items": {"$ref": "#/definitions/ColumnFilter"}}
            }
        },
        "ApproveRequest": {
            "type": "object",
            "properties": {
                "send_notification": {"type": "boolean"},
                "subscription_plan_uuid": {"type": "string", "format": "uuid"},
                "coupon_id": {"type": "integer"}
            }
        },
        "DeclineRequest": {
            "type": "object",
            "properties": {
                "send_notification": {"type": "boolean"},
                "unlink_users_from_enterprise": {"type": "boolean"}
            }
        },
        "UpdateConfigurationRequest": {
            "type": "object",
            "properties": {
                "requests_enabled": {"type": "boolean"},
                "subsidy_type": {"type": "string", "enum": ["license", "coupon"]},
                "clear_subsidy_type": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "page_count": {"type": "integer"}
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
