package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Classbook API",
        "description": "Teacher availability and student booking service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Slots", "description": "Public bookable-slot listing"},
        {"name": "Bookings", "description": "Booking creation, listing, cancellation and export"},
        {"name": "Availability", "description": "Teacher weekly locked-hour grid"},
        {"name": "Teachers", "description": "Authenticated teacher profile"},
        {"name": "Auth", "description": "Google sign-in"}
    ],
    "paths": {
        "/slots": {
            "get": {
                "tags": ["Slots"],
                "summary": "List bookable slots for a teacher and day",
                "parameters": [
                    {"name": "teacher", "in": "query", "type": "string", "required": true, "description": "Teacher slug"},
                    {"name": "date", "in": "query", "type": "string", "required": true, "description": "YYYY-MM-DD on the student's clock"},
                    {"name": "tz", "in": "query", "type": "string", "required": true, "description": "Student IANA timezone"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or invalid parameters"},
                    "404": {"description": "Unknown teacher"}
                }
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List the authenticated teacher's bookings",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Create a booking from contiguous slot selections",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty, malformed or non-contiguous selection"},
                    "404": {"description": "Unknown teacher"},
                    "409": {"description": "Overlap with an existing confirmed booking"}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown booking"}
                }
            }
        },
        "/bookings/export": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Export the teacher's booking schedule",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "description": "csv (default) or pdf"}
                ],
                "responses": {
                    "200": {"description": "Schedule document"}
                }
            }
        },
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List the teacher's locked weekly hours",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Toggle the locked state of one weekly hour",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ToggleAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/teachers/me": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get the authenticated teacher's profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/me/timezone": {
            "put": {
                "tags": ["Teachers"],
                "summary": "Update the authenticated teacher's timezone",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTimezoneRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown timezone"}
                }
            }
        },
        "/auth/google": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign a teacher in with a Google OAuth authorization code",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GoogleSignInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Code exchange failed"}
                }
            }
        }
    },
    "definitions": {
        "SlotSelection": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "studentName": {"type": "string"},
                "subjectName": {"type": "string"},
                "notes": {"type": "string"},
                "startTime": {"type": "string", "format": "date-time"},
                "endTime": {"type": "string", "format": "date-time"},
                "date": {"type": "string"},
                "displayStart": {"type": "string"},
                "displayEnd": {"type": "string"}
            },
            "required": ["teacherId", "studentName", "subjectName", "startTime", "endTime"]
        },
        "CreateBookingRequest": {
            "type": "object",
            "properties": {
                "bookings": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SlotSelection"}
                }
            },
            "required": ["bookings"]
        },
        "ToggleAvailabilityRequest": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "startTime": {"type": "string", "example": "09:00"},
                "endTime": {"type": "string", "example": "10:00"}
            },
            "required": ["dayOfWeek", "startTime", "endTime"]
        },
        "UpdateTimezoneRequest": {
            "type": "object",
            "properties": {
                "timezone": {"type": "string", "example": "America/Los_Angeles"}
            },
            "required": ["timezone"]
        },
        "GoogleSignInRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "redirectUri": {"type": "string"}
            },
            "required": ["code", "redirectUri"]
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
