package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Admin API",
        "description": "Lecturer timetable administration with room, lecturer and class conflict detection.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Terms", "description": "Term kinds instantiated by academic calendars"},
        {"name": "Calendars", "description": "Dated academic calendars"},
        {"name": "Catalog", "description": "Rooms, lecturers, groups and program subjects"},
        {"name": "Schedules", "description": "Lecturer schedules with conflict detection"},
        {"name": "Timetables", "description": "Weekly views per lecturer, group or room"}
    ],
    "paths": {
        "/terms": {
            "get": {
                "tags": ["Terms"],
                "summary": "List terms",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Terms"],
                "summary": "Create term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TermRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Terms"], "summary": "Get term", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Terms"],
                "summary": "Rename term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TermRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {"tags": ["Terms"], "summary": "Delete term", "responses": {"204": {"description": "Deleted"}, "412": {"description": "Used by a calendar"}}}
        },
        "/calendars": {
            "get": {
                "tags": ["Calendars"],
                "summary": "List academic calendars",
                "parameters": [
                    {"name": "term_id", "in": "query", "type": "integer"},
                    {"name": "school_year", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Calendars"],
                "summary": "Create academic calendar",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalendarRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid dates or school year"},
                    "409": {"description": "Duplicate term and year, or duplicate dates"}
                }
            }
        },
        "/calendars/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Calendars"], "summary": "Get academic calendar", "responses": {"200": {"description": "OK"}}},
            "put": {
                "tags": ["Calendars"],
                "summary": "Replace academic calendar",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalendarRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {"tags": ["Calendars"], "summary": "Delete academic calendar", "responses": {"204": {"description": "Deleted"}, "412": {"description": "Referenced by schedules"}}}
        },
        "/rooms": {
            "get": {"tags": ["Catalog"], "summary": "List rooms", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Catalog"],
                "summary": "Create room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/rooms/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Catalog"], "summary": "Get room", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Catalog"], "summary": "Rename room; bookings follow the new name", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Catalog"], "summary": "Delete room", "responses": {"204": {"description": "Deleted"}, "412": {"description": "Room is booked"}}}
        },
        "/lecturers": {
            "get": {"tags": ["Catalog"], "summary": "List lecturers", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Catalog"], "summary": "Create lecturer", "responses": {"201": {"description": "Created"}}}
        },
        "/lecturers/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Catalog"], "summary": "Get lecturer", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Catalog"], "summary": "Update lecturer", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Catalog"], "summary": "Delete lecturer", "responses": {"204": {"description": "Deleted"}, "412": {"description": "Lecturer is scheduled"}}}
        },
        "/groups": {
            "get": {"tags": ["Catalog"], "summary": "List groups", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Catalog"], "summary": "Create group", "responses": {"201": {"description": "Created"}}}
        },
        "/groups/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Catalog"], "summary": "Get group", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Catalog"], "summary": "Update group", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Catalog"], "summary": "Delete group", "responses": {"204": {"description": "Deleted"}, "412": {"description": "Group is scheduled"}}}
        },
        "/program-subjects": {
            "get": {"tags": ["Catalog"], "summary": "List program subjects", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Catalog"], "summary": "Create program subject", "responses": {"201": {"description": "Created"}}}
        },
        "/program-subjects/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Catalog"], "summary": "Get program subject", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Catalog"], "summary": "Update program subject", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Catalog"], "summary": "Delete program subject", "responses": {"204": {"description": "Deleted"}, "412": {"description": "Subject is scheduled"}}}
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List lecturer schedules",
                "parameters": [
                    {"name": "lecturer_id", "in": "query", "type": "integer"},
                    {"name": "class_id", "in": "query", "type": "integer"},
                    {"name": "sy_term_id", "in": "query", "type": "integer"},
                    {"name": "room_code", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "batch_no", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["day", "start_time", "room_code", "batch_no", "created_at"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create lecturer schedule",
                "description": "Checked against entries in every academic calendar whose dates overlap the target calendar.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid payload, unknown reference or end_time not after start_time"},
                    "409": {"description": "room_code, lecturer_id or class_id conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Timed out waiting for a concurrent write"}
                }
            }
        },
        "/schedules/validate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Check a schedule without saving it",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateScheduleRequest"}}
                ],
                "responses": {"200": {"description": "Validation report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/schedules/batches": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Create a schedule batch",
                "description": "All items share one new batch number. Any rejected item rolls back the whole batch.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid items"},
                    "409": {"description": "Conflicting items, keyed items[i].field"}
                }
            }
        },
        "/schedules/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Schedules"], "summary": "Get lecturer schedule", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Schedules"],
                "summary": "Edit lecturer schedule",
                "description": "Checked against other entries of the same batch. The batch number is kept.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            },
            "delete": {"tags": ["Schedules"], "summary": "Delete lecturer schedule", "responses": {"204": {"description": "Deleted"}}}
        },
        "/lecturers/{id}/schedules": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Lecturer timetable",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/groups/{id}/schedules": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Class timetable",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/rooms/{id}/schedules": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Room bookings",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Room code"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "TermRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "NameRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "CalendarRequest": {
            "type": "object",
            "required": ["term_id", "school_year", "start_date", "end_date"],
            "properties": {
                "term_id": {"type": "integer"},
                "school_year": {"type": "string", "example": "2025-2026"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "ScheduleRequest": {
            "type": "object",
            "required": ["lecturer_id", "prog_subj_id", "room_code", "day", "start_time", "end_time", "class_id", "sy_term_id"],
            "properties": {
                "lecturer_id": {"type": "integer"},
                "prog_subj_id": {"type": "integer"},
                "room_code": {"type": "string"},
                "day": {"type": "string", "enum": ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"]},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "10:30"},
                "class_id": {"type": "integer"},
                "sy_term_id": {"type": "integer"}
            }
        },
        "ValidateScheduleRequest": {
            "allOf": [
                {"$ref": "#/definitions/ScheduleRequest"},
                {"type": "object", "properties": {"schedule_id": {"type": "integer", "description": "Check as an edit of this schedule"}}}
            ]
        },
        "BatchScheduleRequest": {
            "type": "object",
            "required": ["items"],
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/ScheduleRequest"}}
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
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
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
