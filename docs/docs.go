// Package docs holds the swagger document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Printer Service API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/print": {
            "post": {
                "description": "Lay out an order as a receipt and send it to the configured printer. With wait=true the finished job is returned.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Print a receipt",
                "parameters": [
                    {
                        "description": "Order, restaurant and printer configuration",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.PrintRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Job finished", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "202": {"description": "Job queued", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Invalid request or printer not configured", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "501": {"description": "Transport not supported on this host", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "503": {"description": "Printer queue full", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/print/test": {
            "post": {
                "description": "Print a short sample receipt and wait for the result",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Test print",
                "parameters": [
                    {
                        "description": "Printer configuration",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.PrinterConfig"}
                    }
                ],
                "responses": {
                    "200": {"description": "Test print finished", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Invalid printer configuration", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "description": "Get print jobs, newest first",
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "List print jobs",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 50, "description": "Items per page", "name": "per_page", "in": "query"},
                    {"type": "string", "description": "Filter by printer ID", "name": "printer_id", "in": "query"},
                    {"enum": ["QUEUED", "PRINTING", "SUCCESS", "FAILED"], "type": "string", "description": "Filter by status", "name": "status", "in": "query"},
                    {"type": "string", "description": "Only jobs created after (RFC3339)", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Jobs retrieved", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/jobs/{job_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Get print job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "job_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Job retrieved", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Invalid job ID", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/printers": {
            "get": {
                "description": "Get every printer the service has a session for, with link state and counters",
                "produces": ["application/json"],
                "tags": ["Printers"],
                "summary": "List printers",
                "responses": {
                    "200": {"description": "Printers retrieved", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/printers/connect": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Printers"],
                "summary": "Connect printer",
                "parameters": [
                    {
                        "description": "Printer identity",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.BluetoothPrinter"}
                    }
                ],
                "responses": {
                    "200": {"description": "Printer connected", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Printer identity missing", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "404": {"description": "Printer not found", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "422": {"description": "Device is not a supported printer", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "502": {"description": "Connection failed", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/printers/{transport}/{printer_id}/disconnect": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Printers"],
                "summary": "Disconnect printer",
                "parameters": [
                    {"enum": ["bluetooth", "serial", "tcp", "usb"], "type": "string", "description": "Transport", "name": "transport", "in": "path", "required": true},
                    {"type": "string", "description": "Printer ID", "name": "printer_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Printer disconnected", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Unknown transport", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "404": {"description": "No session for printer", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/discovery/scan": {
            "get": {
                "description": "Scan Bluetooth, serial, USB and network transports for printers",
                "produces": ["application/json"],
                "tags": ["Discovery"],
                "summary": "Scan for printers",
                "parameters": [
                    {"type": "string", "default": "all", "description": "Comma separated transports, or all", "name": "type", "in": "query"},
                    {"type": "string", "default": "15s", "description": "Scan timeout", "name": "timeout", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Printer scan completed", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Invalid scan parameters", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/command-sets": {
            "get": {
                "description": "Get every command set with its control sequences as hex, and the supported code pages",
                "produces": ["application/json"],
                "tags": ["Receipts"],
                "summary": "List command sets",
                "responses": {
                    "200": {"description": "Command sets retrieved", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/receipts/preview": {
            "post": {
                "description": "Lay out and encode a receipt, returning the printer stream as base64 and hex plus a plain text rendering",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Receipts"],
                "summary": "Preview receipt",
                "parameters": [
                    {
                        "description": "Order, restaurant and printer configuration",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.PrintRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Receipt rendered", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.BluetoothPrinter": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "connectedAt": {"type": "string"},
                "transport": {"type": "string", "enum": ["bluetooth", "serial", "tcp", "usb"]}
            }
        },
        "model.PrinterConfig": {
            "type": "object",
            "properties": {
                "bluetoothPrinter": {"$ref": "#/definitions/model.BluetoothPrinter"},
                "commandSet": {"type": "string", "enum": ["esc_pos", "esc_pos_star", "esc_bixolon", "epson_tm"]},
                "template": {"type": "string", "enum": ["standard", "detailed", "minimal", "itemized", "custom"]},
                "printerWidth": {"type": "string", "enum": ["58mm", "80mm"]},
                "showLogo": {"type": "boolean"},
                "showOrderNumber": {"type": "boolean"},
                "showCustomerDetails": {"type": "boolean"},
                "headerText": {"type": "string"},
                "footerText": {"type": "string"},
                "customSections": {"type": "object"},
                "codePage": {"type": "string"}
            }
        },
        "service.PrintRequest": {
            "type": "object",
            "properties": {
                "order": {"type": "object"},
                "restaurant": {"type": "object"},
                "config": {"$ref": "#/definitions/model.PrinterConfig"},
                "wait": {"type": "boolean"}
            }
        },
        "utils.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "string"},
                "retryable": {"type": "boolean"}
            }
        },
        "utils.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"$ref": "#/definitions/utils.APIError"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8085",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Printer Service API",
	Description:      "Receipt printing for thermal printers over Bluetooth, serial, USB and TCP",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
