// Package docs registers the OpenAPI description served at /swagger.
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
        "/receipts/extract": {
            "post": {
                "description": "Read items and metadata from a receipt photo (JPG, PNG, WEBP or GIF). A result with zero items is still a 200 and carries raw_text for manual entry.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["receipts"],
                "summary": "Extract a receipt",
                "parameters": [
                    {"type": "file", "description": "Receipt image", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Extraction result", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Missing file or unsupported type", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "500": {"description": "Could not process receipt", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/receipts/runs": {
            "get": {
                "description": "Diagnostics for the most recent extractions. Items are never stored.",
                "produces": ["application/json"],
                "tags": ["receipts"],
                "summary": "List recent extraction runs",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum rows (max 200)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Recent runs", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.APIError"},
                "success": {"type": "boolean", "example": false}
            }
        },
        "handler.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "success": {"type": "boolean", "example": true}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Receipt Extraction API",
	Description:      "Turns receipt photos into reviewable transaction items.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
