// Package docs registers the royalty API swagger document.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/tracks": {
            "post": {
                "tags": ["tracks"],
                "summary": "Register a track",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterTrackRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            },
            "get": {
                "tags": ["tracks"],
                "summary": "List the caller's tracks, newest first",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "genre", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/v1/tracks/{track_id}": {
            "get": {
                "tags": ["tracks"],
                "summary": "Get a track with its split status and earning estimate",
                "parameters": [{"type": "string", "name": "track_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "tags": ["tracks"],
                "summary": "Update a track's metadata and payout terms",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "track_id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTrackRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["tracks"],
                "summary": "Delete a track that has no distributed royalties",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "track_id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/tracks/{track_id}/splits": {
            "get": {
                "tags": ["splits"],
                "summary": "Split sum and completeness",
                "parameters": [{"type": "string", "name": "track_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["splits"],
                "summary": "Add a collaborator split",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "track_id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSplitRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/tracks/{track_id}/splits/{split_id}": {
            "put": {
                "tags": ["splits"],
                "summary": "Change a split's percentage",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "track_id", "in": "path", "required": true},
                    {"type": "string", "name": "split_id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSplitRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["splits"],
                "summary": "Remove a split",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "track_id", "in": "path", "required": true},
                    {"type": "string", "name": "split_id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/tracks/{track_id}/streams": {
            "post": {
                "tags": ["streams"],
                "summary": "Record per-platform stream counts",
                "parameters": [{"type": "string", "name": "track_id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/v1/tracks/{track_id}/distribute": {
            "post": {
                "tags": ["distributions"],
                "summary": "Distribute the track's fixed payout amount",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "track_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/tracks/{track_id}/distribute-streams": {
            "post": {
                "tags": ["distributions"],
                "summary": "Distribute earnings for streams recorded since the last run",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "track_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/tracks/{track_id}/royalties": {
            "get": {
                "tags": ["distributions"],
                "summary": "List a track's royalty events",
                "parameters": [{"type": "string", "name": "track_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/wallets/me": {
            "get": {
                "tags": ["wallets"],
                "summary": "Wallet of the calling user",
                "parameters": [{"type": "string", "name": "X-User-Id", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/wallets/me/address": {
            "put": {
                "tags": ["wallets"],
                "summary": "Link a blockchain address to the calling user's wallet",
                "parameters": [{"type": "string", "name": "X-User-Id", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/wallets/{wallet_id}": {
            "get": {
                "tags": ["wallets"],
                "summary": "Get a wallet",
                "parameters": [{"type": "string", "name": "wallet_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/wallets/{wallet_id}/payouts": {
            "get": {
                "tags": ["wallets"],
                "summary": "List a wallet's payouts",
                "parameters": [{"type": "string", "name": "wallet_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/wallets/{wallet_id}/summary": {
            "get": {
                "tags": ["wallets"],
                "summary": "Payout totals per status",
                "parameters": [{"type": "string", "name": "wallet_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/wallets/{wallet_id}/withdraw": {
            "post": {
                "tags": ["wallets"],
                "summary": "Withdraw from a wallet",
                "parameters": [
                    {"type": "string", "name": "wallet_id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WithdrawRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/v1/payouts/{payout_id}/confirm": {
            "post": {
                "tags": ["payouts"],
                "summary": "Confirm a completed payout on chain",
                "parameters": [{"type": "string", "name": "payout_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/payout-statuses": {
            "get": {
                "tags": ["payouts"],
                "summary": "List payout statuses",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/platform-fees/report": {
            "get": {
                "tags": ["platform-fees"],
                "summary": "Monthly platform fee report",
                "parameters": [{"type": "string", "name": "month", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/v1/platform-fees/tracks/{track_id}": {
            "get": {
                "tags": ["platform-fees"],
                "summary": "Fee history of a track",
                "parameters": [
                    {"type": "string", "name": "track_id", "in": "path", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "RegisterTrackRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "duration_seconds": {"type": "integer"},
                "genre": {"type": "string"},
                "nft_id": {"type": "string"},
                "payout_amount": {"type": "string", "example": "1000.00"},
                "rate_per_stream": {"type": "string", "example": "0.003"}
            }
        },
        "AddSplitRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "percentage": {"type": "string", "example": "33.333"}
            }
        },
        "UpdateSplitRequest": {
            "type": "object",
            "properties": {
                "percentage": {"type": "string", "example": "33.334"}
            }
        },
        "UpdateTrackRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "duration_seconds": {"type": "integer"},
                "genre": {"type": "string"},
                "nft_id": {"type": "string"},
                "payout_amount": {"type": "string", "example": "1200.00"},
                "rate_per_stream": {"type": "string", "example": "0.004"}
            }
        },
        "WithdrawRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "string", "example": "600.00"}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Royalty Engine API",
	Description:      "Royalty distribution and payout settlement.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
