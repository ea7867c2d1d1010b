// Package docs holds the swagger document served at /swagger.
// Regenerate with: swag init -g cmd/fanboxsync/main.go -o docs
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
        "/healthz": {"get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/readyz": {"get": {"tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/api/sync/creators": {"post": {"tags": ["sync"], "summary": "Sync supporting creators", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}},
        "/api/sync/creators/{id}/posts": {"post": {"tags": ["sync"], "summary": "Sync posts for a creator", "produces": ["application/json"],
            "parameters": [
                {"type": "string", "description": "creator handle or numeric user id", "name": "id", "in": "path", "required": true},
                {"type": "integer", "description": "maximum posts to fetch (default from config)", "name": "limit", "in": "query"}
            ],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}}},
        "/api/sync/state": {"get": {"tags": ["sync"], "summary": "Sync state per scope", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/sync/runs": {"get": {"tags": ["sync"], "summary": "Recent sync runs", "produces": ["application/json"],
            "parameters": [
                {"type": "string", "description": "creators or posts:<creatorId>", "name": "scope", "in": "query"},
                {"type": "integer", "description": "max runs (default 50)", "name": "limit", "in": "query"}
            ],
            "responses": {"200": {"description": "OK"}}}},
        "/api/creators": {"get": {"tags": ["creators"], "summary": "Supporting creators", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/creators/{id}/posts": {"get": {"tags": ["creators"], "summary": "Visible posts for a creator", "produces": ["application/json"],
            "parameters": [{"type": "string", "description": "creator handle", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}}}},
        "/api/creators/{id}/posts/watch": {"get": {"tags": ["creators"], "summary": "Stream a creator's posts",
            "parameters": [{"type": "string", "description": "creator handle", "name": "id", "in": "path", "required": true}],
            "responses": {"101": {"description": "Switching Protocols"}}}},
        "/api/creators/{id}/tags": {"get": {"tags": ["creators"], "summary": "Tags for a creator", "produces": ["application/json"],
            "parameters": [{"type": "string", "description": "creator handle", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}}}},
        "/api/posts/bookmarked": {"get": {"tags": ["posts"], "summary": "Bookmarked posts", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/posts/bookmarked/watch": {"get": {"tags": ["posts"], "summary": "Stream bookmarked posts", "responses": {"101": {"description": "Switching Protocols"}}}},
        "/api/posts/hidden": {"get": {"tags": ["posts"], "summary": "Hidden posts", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/posts/hidden/watch": {"get": {"tags": ["posts"], "summary": "Stream hidden posts", "responses": {"101": {"description": "Switching Protocols"}}}},
        "/api/posts/{id}/bookmark": {"put": {"tags": ["posts"], "summary": "Set or clear a bookmark", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"type": "string", "description": "post id", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/posts/{id}/hidden": {"put": {"tags": ["posts"], "summary": "Hide or unhide a post", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"type": "string", "description": "post id", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/posts/{id}/opened": {"put": {"tags": ["posts"], "summary": "Mark a post as opened", "produces": ["application/json"],
            "parameters": [{"type": "string", "description": "post id", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/posts/{id}/tags": {"put": {"tags": ["posts"], "summary": "Replace a post's tags", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"type": "string", "description": "post id", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/userdata/export": {"get": {"tags": ["userdata"], "summary": "Export user data", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/userdata/import": {"post": {"tags": ["userdata"], "summary": "Import user data", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/api/store/clear": {"post": {"tags": ["userdata"], "summary": "Clear the local store", "produces": ["application/json"],
            "parameters": [{"type": "string", "description": "all or non_user_state", "name": "mode", "in": "query"}],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/api/session": {"get": {"tags": ["session"], "summary": "Session status", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/session/logout": {"post": {"tags": ["session"], "summary": "Log out", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Fanbox Viewer Sync API",
	Description:      "Creator and post synchronization, local post state, and user data transfer.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
