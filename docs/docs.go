// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/users": {
            "post": {"tags": ["users"], "summary": "Create a new user", "responses": {"201": {"description": "Created"}, "422": {"description": "Validation error"}}},
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List all users", "responses": {"200": {"description": "OK"}}}
        },
        "/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get user by ID", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update a user", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/groups": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Create a new group", "responses": {"201": {"description": "Created"}}},
            "get": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "List my groups", "responses": {"200": {"description": "OK"}}}
        },
        "/groups/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Get group by ID", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Update a group", "responses": {"200": {"description": "OK"}}}
        },
        "/groups/{id}/members": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["members"], "summary": "Add a member", "responses": {"201": {"description": "Created"}}},
            "get": {"security": [{"BearerAuth": []}], "tags": ["members"], "summary": "List members", "responses": {"200": {"description": "OK"}}}
        },
        "/groups/{id}/members/{userId}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["members"], "summary": "Change a member's role", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["members"], "summary": "Remove a member or leave", "responses": {"200": {"description": "OK"}, "422": {"description": "Outstanding balance"}}}
        },
        "/expenses/{id}/expenses": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "Create an expense", "responses": {"201": {"description": "Created"}, "422": {"description": "Validation error"}}}
        },
        "/expenses/group/{groupId}/expenses": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "List group expenses", "responses": {"200": {"description": "OK"}}}
        },
        "/expenses/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "Get an expense", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "Update an expense", "responses": {"200": {"description": "OK"}}}
        },
        "/expenses/group/{groupId}/expense/{id}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "Delete an expense", "responses": {"200": {"description": "OK"}}}
        },
        "/expenses/group/user/settlement": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["settlements"], "summary": "Record a settlement", "responses": {"201": {"description": "Created"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["settlements"], "summary": "Delete a settlement", "responses": {"200": {"description": "OK"}}}
        },
        "/expenses/group/{groupId}/settlements": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["settlements"], "summary": "List group settlements", "responses": {"200": {"description": "OK"}}}
        },
        "/expenses/group/{groupId}/settlement/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["settlements"], "summary": "Get a settlement", "responses": {"200": {"description": "OK"}}}
        },
        "/user/balances": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["balances"], "summary": "My balances across groups", "responses": {"200": {"description": "OK"}}}
        },
        "/user/groups/{groupId}/balances": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["balances"], "summary": "My balances in a group", "responses": {"200": {"description": "OK"}}}
        },
        "/user/groups/{groupId}/balances/{userId}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["balances"], "summary": "Balance with one member", "responses": {"200": {"description": "OK"}}}
        },
        "/user/groups/{groupId}/settle-up": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["balances"], "summary": "Suggested transfers", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "List my notifications", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Group Ledger API",
	Description:      "Shared expenses, settlements and pairwise balances for groups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
