package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UG-1 Portal API",
        "description": "Enrollment form submission and approval workflow",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Student", "description": "UG-1 submission and tracking"},
        {"name": "Tutor", "description": "First-stage signing"},
        {"name": "Manager", "description": "Final approval and printed copies"},
        {"name": "Fee", "description": "Fee voucher verification"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Login and set the session cookie",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student account",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Clear the session cookie",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user with navigation",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/student/ugform/submit": {
            "post": {
                "tags": ["Student"],
                "summary": "Submit a UG-1 form",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UGFormSubmission"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/student/ugform": {
            "get": {
                "tags": ["Student"],
                "summary": "List own UG-1 forms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/student/ugform/autofill": {
            "get": {
                "tags": ["Student"],
                "summary": "Prefill data for a new form",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/student/ugform/{id}": {
            "get": {
                "tags": ["Student"],
                "summary": "Get own UG-1 form",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/student/ugform/{id}/pdf": {
            "post": {
                "tags": ["Student"],
                "summary": "Generate the student copy",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/student/notifications": {
            "get": {
                "tags": ["Student"],
                "summary": "List notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/tutor/sign": {
            "get": {
                "tags": ["Tutor"],
                "summary": "Tutor queue with stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Tutor"],
                "summary": "Sign or reject a form",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApprovalDecision"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/manager/approval": {
            "get": {
                "tags": ["Manager"],
                "summary": "Manager queue with stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Manager"],
                "summary": "Approve or reject a form",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApprovalDecision"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/manager/approval/{id}/pdf": {
            "post": {
                "tags": ["Manager"],
                "summary": "Generate a form copy",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/fee/vouchers": {
            "get": {
                "tags": ["Fee"],
                "summary": "List fee vouchers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Fee"],
                "summary": "Submit a fee voucher",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeeSubmission"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/fee/vouchers/{id}": {
            "put": {
                "tags": ["Fee"],
                "summary": "Review a fee voucher",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeeReview"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Create user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/users/{id}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Get user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Admin"],
                "summary": "Update user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/users/{id}/active": {
            "patch": {
                "tags": ["Admin"],
                "summary": "Activate or deactivate user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/ugforms": {
            "get": {
                "tags": ["Admin"],
                "summary": "List all UG-1 forms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/ugforms/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Global UG-1 statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/ugforms/{id}/activity": {
            "get": {
                "tags": ["Admin"],
                "summary": "Form audit trail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/dg-office/ugforms": {
            "get": {
                "tags": ["DG Office"],
                "summary": "List completed forms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/downloads/{token}": {
            "get": {
                "tags": ["Downloads"],
                "summary": "Download a signed PDF copy",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "identifier": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "SubjectInput": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "creditHours": {"type": "string", "example": "3(2-1)"},
                "theoryHours": {"type": "integer"},
                "practicalHours": {"type": "integer"},
                "totalCredits": {"type": "integer"}
            }
        },
        "UGFormSubmission": {
            "type": "object",
            "properties": {
                "departmentName": {"type": "string"},
                "degreeName": {"type": "string"},
                "semester": {"type": "integer"},
                "section": {"type": "string"},
                "session": {"type": "string"},
                "admissionTerm": {"type": "string"},
                "registeredNo": {"type": "string"},
                "studentName": {"type": "string"},
                "fatherName": {"type": "string"},
                "tutorName": {"type": "string"},
                "tutorEmail": {"type": "string"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/SubjectInput"}},
                "extraSubjects": {"type": "array", "items": {"$ref": "#/definitions/SubjectInput"}}
            }
        },
        "ApprovalDecision": {
            "type": "object",
            "properties": {
                "formId": {"type": "string"},
                "action": {"type": "string", "enum": ["sign", "approve", "reject"]},
                "tutorSignature": {"type": "string"},
                "verificationNotes": {"type": "string"},
                "rejectionReason": {"type": "string"}
            }
        },
        "FeeSubmission": {
            "type": "object",
            "properties": {
                "voucherNumber": {"type": "string"},
                "bankName": {"type": "string"},
                "branchCode": {"type": "string"},
                "amount": {"type": "integer"},
                "depositDate": {"type": "string", "example": "2026-08-30"},
                "voucherImageUrl": {"type": "string"}
            }
        },
        "FeeReview": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["processing", "approved", "rejected"]},
                "remarks": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object"}
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
