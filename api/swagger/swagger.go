package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "QC Gate API",
        "description": "Testing gate and approval entitlement engine for apparel compliance",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Collections", "description": "Product collection lifecycle and testing gates"},
        {"name": "Components", "description": "Component library and risk flags"},
        {"name": "Entitlements", "description": "Per-user approval tiers"},
        {"name": "Reports", "description": "Async compliance and audit trail exports"},
        {"name": "Authentication", "description": "Login, tokens and account management"}
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
        "/collections": {
            "get": {
                "tags": ["Collections"],
                "summary": "List collections",
                "parameters": [
                    {"name": "supplier_id", "in": "query", "type": "string"},
                    {"name": "season", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Collections"],
                "summary": "Register collection",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCollectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate style/season/supplier", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}": {
            "get": {
                "tags": ["Collections"],
                "summary": "Get collection snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/audit": {
            "get": {
                "tags": ["Collections"],
                "summary": "Get audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/components": {
            "post": {
                "tags": ["Collections"],
                "summary": "Link component",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LinkComponentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Base gate locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/components/{componentId}": {
            "delete": {
                "tags": ["Collections"],
                "summary": "Unlink component",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "componentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/gates/submit": {
            "post": {
                "tags": ["Collections"],
                "summary": "Submit testing gate",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GateSubmitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Prior gate not approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/gates/start": {
            "post": {
                "tags": ["Collections"],
                "summary": "Start testing on a submitted gate",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GateActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/gates/outcome": {
            "post": {
                "tags": ["Collections"],
                "summary": "Record gate test outcome",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GateOutcomeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/gates/approve": {
            "post": {
                "tags": ["Collections"],
                "summary": "Approve a passed gate",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GateActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Approval tier too low", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Risk assessment incomplete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/care-label": {
            "put": {
                "tags": ["Collections"],
                "summary": "Complete care label package",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CareLabelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Incomplete care label", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Care label frozen after GSW submission", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/gsw/upload": {
            "post": {
                "tags": ["Collections"],
                "summary": "Upload GSW package version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GSWUploadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Testing gates not all approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/gsw/submit": {
            "post": {
                "tags": ["Collections"],
                "summary": "Submit GSW for approval",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GSWSubmitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Gates or care label incomplete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/gsw/approve": {
            "post": {
                "tags": ["Collections"],
                "summary": "Approve GSW sign-off",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Approval tier too low", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collections/{id}/gsw/reject": {
            "post": {
                "tags": ["Collections"],
                "summary": "Reject GSW sign-off",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/GSWDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/components": {
            "get": {
                "tags": ["Components"],
                "summary": "List components",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "risk_only", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Components"],
                "summary": "Create component",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateComponentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/components/classify": {
            "get": {
                "tags": ["Components"],
                "summary": "Classify a component area against the risk threshold",
                "parameters": [
                    {"name": "area", "in": "query", "required": true, "type": "number"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/components/{id}": {
            "get": {
                "tags": ["Components"],
                "summary": "Get component",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Components"],
                "summary": "Update component",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateComponentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Frozen by an approved base gate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/entitlements": {
            "get": {
                "tags": ["Entitlements"],
                "summary": "List entitlements",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Entitlements"],
                "summary": "Set a user's approval tier",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetEntitlementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/entitlements/{id}": {
            "get": {
                "tags": ["Entitlements"],
                "summary": "Get a user's approval tier",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/status/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a generated report",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "410": {"description": "Link expired"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateCollectionRequest": {
            "type": "object",
            "properties": {
                "style_ref": {"type": "string"},
                "season": {"type": "string"},
                "supplier_id": {"type": "string"}
            },
            "required": ["style_ref", "season", "supplier_id"]
        },
        "LinkComponentRequest": {
            "type": "object",
            "properties": {
                "component_id": {"type": "string"}
            },
            "required": ["component_id"]
        },
        "GateSubmitRequest": {
            "type": "object",
            "properties": {
                "level": {"type": "string", "enum": ["base", "bulk", "garment"]},
                "request_id": {"type": "string"}
            },
            "required": ["level", "request_id"]
        },
        "GateActionRequest": {
            "type": "object",
            "properties": {
                "level": {"type": "string", "enum": ["base", "bulk", "garment"]}
            },
            "required": ["level"]
        },
        "GateOutcomeRequest": {
            "type": "object",
            "properties": {
                "level": {"type": "string", "enum": ["base", "bulk", "garment"]},
                "passed": {"type": "boolean"},
                "note": {"type": "string"}
            },
            "required": ["level"]
        },
        "CareLabelRequest": {
            "type": "object",
            "properties": {
                "symbols": {"type": "array", "items": {"type": "string"}},
                "wording": {"type": "string"}
            },
            "required": ["symbols", "wording"]
        },
        "GSWUploadRequest": {
            "type": "object",
            "properties": {
                "file_ref": {"type": "string"},
                "version": {"type": "integer"}
            },
            "required": ["file_ref", "version"]
        },
        "GSWSubmitRequest": {
            "type": "object",
            "properties": {
                "submitted_to": {"type": "string"}
            },
            "required": ["submitted_to"]
        },
        "GSWDecisionRequest": {
            "type": "object",
            "properties": {
                "note": {"type": "string"}
            }
        },
        "CreateComponentRequest": {
            "type": "object",
            "properties": {
                "composition": {"type": "string"},
                "area_percentage": {"type": "number"},
                "risk_assessment_required": {"type": "boolean"}
            },
            "required": ["composition", "area_percentage"]
        },
        "UpdateComponentRequest": {
            "type": "object",
            "properties": {
                "composition": {"type": "string"},
                "area_percentage": {"type": "number"},
                "risk_assessment_required": {"type": "boolean"}
            },
            "required": ["composition", "area_percentage"]
        },
        "SetEntitlementRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "level": {"type": "string", "enum": ["NONE", "BRONZE", "SILVER", "GOLD"]}
            },
            "required": ["user_id", "level"]
        },
        "GenerateReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["compliance", "audit_trail"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "collection_id": {"type": "string"},
                "supplier_id": {"type": "string"},
                "season": {"type": "string"}
            },
            "required": ["type", "format"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
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
