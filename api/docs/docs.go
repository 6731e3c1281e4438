// Package docs holds the swagger specification served under /swagger.
// It follows the layout `swag init` generates so the gin-swagger handler
// can pick it up through swag.Register.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Health probe",
                "description": "Liveness check, reachable without authentication.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.HealthResponse"}
                    }
                }
            }
        },
        "/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "summary": "Tunnel status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.StatusResponse"}
                    }
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "summary": "Relay traffic counters",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/tunnel.RelayStats"}
                    }
                }
            }
        },
        "/connect": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Start the tunnel",
                "description": "Connects the tunnel to the given SOCKS5 proxy. Repeating an identical request while connected is a successful no-op.",
                "parameters": [
                    {
                        "description": "proxy target",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.ConnectRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.GenericResponse"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/api.GenericResponse"}
                    }
                }
            }
        },
        "/disconnect": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "summary": "Stop the tunnel",
                "description": "Disconnects the tunnel. Always succeeds; disconnecting an idle tunnel is a no-op.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.GenericResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "api.ConnectRequest": {
            "type": "object",
            "properties": {
                "host": {"type": "string"},
                "port": {"type": "integer"},
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "api.GenericResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "api.StatusResponse": {
            "type": "object",
            "properties": {
                "connected": {"type": "boolean"},
                "state": {"type": "string"},
                "host": {"type": "string"},
                "port": {"type": "integer"}
            }
        },
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "service": {"type": "string"}
            }
        },
        "tunnel.RelayStats": {
            "type": "object",
            "properties": {
                "uploadBytes": {"type": "integer"},
                "downloadBytes": {"type": "integer"},
                "activeConnections": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "socktun control API",
	Description:      "Local control plane for a device-resident SOCKS5 tunnel.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
