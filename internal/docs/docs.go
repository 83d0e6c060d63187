// Package docs holds the Swagger document served at /swagger/index.html.
// Regenerate with `swag init -g cmd/api/main.go -o internal/docs`.
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
        "/budget/allocations": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget"
                ],
                "summary": "Allocate budget",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Replay protection key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.AllocateRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Updated entry",
                        "schema": {
                            "$ref": "#/definitions/models.BudgetEntry"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/budget/entries": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget"
                ],
                "summary": "List budget entries",
                "parameters": [
                    {
                        "type": "string",
                        "description": "project_id",
                        "name": "project_id",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "category",
                        "name": "category",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "fiscal_year",
                        "name": "fiscal_year",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page number (default 1)",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Items per page (default 20, max 100)",
                        "name": "page_size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Paginated entries",
                        "schema": {
                            "$ref": "#/definitions/pagination.PageResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/budget/entries/{id}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget"
                ],
                "summary": "Get budget entry",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Entry",
                        "schema": {
                            "$ref": "#/definitions/models.BudgetEntry"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/budget/summary": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget"
                ],
                "summary": "Fiscal year summary",
                "parameters": [
                    {
                        "type": "string",
                        "description": "fiscal_year",
                        "name": "fiscal_year",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Summary",
                        "schema": {
                            "$ref": "#/definitions/services.FiscalYearSummary"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/budget/requests": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget-requests"
                ],
                "summary": "Request budget",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Replay protection key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateBudgetRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Request created",
                        "schema": {
                            "$ref": "#/definitions/models.BudgetRequest"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            },
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget-requests"
                ],
                "summary": "List budget requests",
                "parameters": [
                    {
                        "type": "string",
                        "description": "project_id",
                        "name": "project_id",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "status",
                        "name": "status",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page number (default 1)",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Items per page (default 20, max 100)",
                        "name": "page_size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Paginated requests",
                        "schema": {
                            "$ref": "#/definitions/pagination.PageResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/budget/requests/{id}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget-requests"
                ],
                "summary": "Get budget request",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Request",
                        "schema": {
                            "$ref": "#/definitions/models.BudgetRequest"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/budget/requests/{id}/decision": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget-requests"
                ],
                "summary": "Decide budget request",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Replay protection key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.DecisionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Decided request",
                        "schema": {
                            "$ref": "#/definitions/models.BudgetRequest"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/budget/transfers": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget-transfers"
                ],
                "summary": "Transfer budget",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Replay protection key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateTransferRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Transfer applied",
                        "schema": {
                            "$ref": "#/definitions/services.TransferResult"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Unprocessable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            },
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget-transfers"
                ],
                "summary": "List budget transfers",
                "parameters": [
                    {
                        "type": "string",
                        "description": "project_id",
                        "name": "project_id",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "fiscal_year",
                        "name": "fiscal_year",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page number (default 1)",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Items per page (default 20, max 100)",
                        "name": "page_size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Paginated transfers",
                        "schema": {
                            "$ref": "#/definitions/pagination.PageResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/budget/archives": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget-archives"
                ],
                "summary": "Archive fiscal year",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Replay protection key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.ArchiveRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Archive result",
                        "schema": {
                            "$ref": "#/definitions/services.ArchiveResult"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            },
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "budget-archives"
                ],
                "summary": "List archives",
                "parameters": [
                    {
                        "type": "string",
                        "description": "fiscal_year",
                        "name": "fiscal_year",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page number (default 1)",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Items per page (default 20, max 100)",
                        "name": "page_size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Paginated archives",
                        "schema": {
                            "$ref": "#/definitions/pagination.PageResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/projects": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "projects"
                ],
                "summary": "Create a project",
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateProjectRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Project created",
                        "schema": {
                            "$ref": "#/definitions/models.Project"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/projects/{id}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "projects"
                ],
                "summary": "Get a project",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Project",
                        "schema": {
                            "$ref": "#/definitions/models.Project"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/projects/{id}/members": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "projects"
                ],
                "summary": "Add a project member",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.AddMemberRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Member added",
                        "schema": {
                            "$ref": "#/definitions/models.ProjectMember"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/pipeline/expenses": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pipeline"
                ],
                "summary": "Record expense",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Pipeline API key",
                        "name": "X-API-Key",
                        "in": "header",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.RecordExpenseRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Updated entry",
                        "schema": {
                            "$ref": "#/definitions/models.BudgetEntry"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Unprocessable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Pipeline not configured",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "fields": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "field": {
                                "type": "string"
                            },
                            "rule": {
                                "type": "string"
                            },
                            "param": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "$ref": "#/definitions/handlers.ErrorDetail"
                }
            }
        },
        "handlers.AllocateRequest": {
            "type": "object",
            "properties": {
                "project_id": {
                    "type": "string"
                },
                "category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "fiscal_year": {
                    "type": "string"
                },
                "amount": {
                    "type": "string",
                    "example": "150000.00"
                }
            },
            "required": [
                "project_id",
                "category",
                "fiscal_year",
                "amount"
            ]
        },
        "handlers.RecordExpenseRequest": {
            "type": "object",
            "properties": {
                "project_id": {
                    "type": "string"
                },
                "category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "fiscal_year": {
                    "type": "string"
                },
                "amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "reference": {
                    "type": "string"
                }
            },
            "required": [
                "project_id",
                "category",
                "fiscal_year",
                "amount"
            ]
        },
        "handlers.CreateBudgetRequest": {
            "type": "object",
            "properties": {
                "project_id": {
                    "type": "string"
                },
                "category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "justification": {
                    "type": "string"
                }
            },
            "required": [
                "project_id",
                "category",
                "amount",
                "justification"
            ]
        },
        "handlers.DecisionRequest": {
            "type": "object",
            "properties": {
                "action": {
                    "type": "string",
                    "enum": [
                        "APPROVED",
                        "PARTIALLY_APPROVED",
                        "REJECTED"
                    ]
                },
                "approved_amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "comments": {
                    "type": "string"
                }
            },
            "required": [
                "action"
            ]
        },
        "handlers.CreateTransferRequest": {
            "type": "object",
            "properties": {
                "from_project_id": {
                    "type": "string"
                },
                "from_category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "to_project_id": {
                    "type": "string"
                },
                "to_category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "fiscal_year": {
                    "type": "string"
                },
                "amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "reason": {
                    "type": "string"
                }
            },
            "required": [
                "amount",
                "reason"
            ]
        },
        "handlers.ArchiveRequest": {
            "type": "object",
            "properties": {
                "fiscal_year": {
                    "type": "string"
                },
                "carry_forward_percent": {
                    "type": "string",
                    "example": "50"
                },
                "roll_forward": {
                    "type": "boolean"
                }
            },
            "required": [
                "fiscal_year"
            ]
        },
        "handlers.CreateProjectRequest": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "head_id": {
                    "type": "string"
                }
            },
            "required": [
                "code",
                "title",
                "head_id"
            ]
        },
        "handlers.AddMemberRequest": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string"
                }
            },
            "required": [
                "user_id"
            ]
        },
        "models.BudgetEntry": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "project_id": {
                    "type": "string"
                },
                "category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "fiscal_year": {
                    "type": "string"
                },
                "allocated_amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "utilized_amount": {
                    "type": "string",
                    "example": "150000.00"
                }
            }
        },
        "models.BudgetRequest": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "project_id": {
                    "type": "string"
                },
                "requested_by": {
                    "type": "string"
                },
                "category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "justification": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "PENDING",
                        "APPROVED",
                        "PARTIALLY_APPROVED",
                        "REJECTED"
                    ]
                },
                "approved_by": {
                    "type": "string"
                },
                "approved_amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "approved_at": {
                    "type": "string"
                },
                "fiscal_year": {
                    "type": "string"
                },
                "comments": {
                    "type": "string"
                }
            }
        },
        "models.BudgetTransfer": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "from_project_id": {
                    "type": "string"
                },
                "from_category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "to_project_id": {
                    "type": "string"
                },
                "to_category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "fiscal_year": {
                    "type": "string"
                },
                "amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "reason": {
                    "type": "string"
                },
                "transferred_by": {
                    "type": "string"
                }
            }
        },
        "models.BudgetArchive": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "project_id": {
                    "type": "string"
                },
                "category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "fiscal_year": {
                    "type": "string"
                },
                "allocated_amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "utilized_amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "carried_forward": {
                    "type": "string",
                    "example": "150000.00"
                },
                "returned_amount": {
                    "type": "string",
                    "example": "150000.00"
                },
                "carry_forward_percent": {
                    "type": "string",
                    "example": "150000.00"
                },
                "archived_by": {
                    "type": "string"
                }
            }
        },
        "models.ProjectMember": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "project_id": {
                    "type": "string"
                },
                "user_id": {
                    "type": "string"
                },
                "is_active": {
                    "type": "boolean"
                }
            }
        },
        "models.Project": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "code": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "head_id": {
                    "type": "string"
                },
                "is_active": {
                    "type": "boolean"
                },
                "members": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.ProjectMember"
                    }
                }
            }
        },
        "pagination.PageResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "array",
                    "items": {}
                },
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_items": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                }
            }
        },
        "services.CategorySummary": {
            "type": "object",
            "properties": {
                "category": {
                    "type": "string",
                    "enum": [
                        "EQUIPMENT",
                        "CONSUMABLES",
                        "TRAVEL",
                        "MANPOWER",
                        "CONTINGENCY",
                        "OVERHEAD",
                        "OTHER"
                    ]
                },
                "allocated": {
                    "type": "string",
                    "example": "150000.00"
                },
                "utilized": {
                    "type": "string",
                    "example": "150000.00"
                },
                "remaining": {
                    "type": "string",
                    "example": "150000.00"
                },
                "utilization_percent": {
                    "type": "integer"
                }
            }
        },
        "services.FiscalYearSummary": {
            "type": "object",
            "properties": {
                "fiscal_year": {
                    "type": "string"
                },
                "total_allocated": {
                    "type": "string",
                    "example": "150000.00"
                },
                "total_utilized": {
                    "type": "string",
                    "example": "150000.00"
                },
                "total_remaining": {
                    "type": "string",
                    "example": "150000.00"
                },
                "utilization_percent": {
                    "type": "integer"
                },
                "categories": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/services.CategorySummary"
                    }
                }
            }
        },
        "services.TransferResult": {
            "type": "object",
            "properties": {
                "transfer": {
                    "$ref": "#/definitions/models.BudgetTransfer"
                },
                "from_entry": {
                    "$ref": "#/definitions/models.BudgetEntry"
                },
                "to_entry": {
                    "$ref": "#/definitions/models.BudgetEntry"
                }
            }
        },
        "services.ArchiveResult": {
            "type": "object",
            "properties": {
                "fiscal_year": {
                    "type": "string"
                },
                "carry_forward_percent": {
                    "type": "string",
                    "example": "150000.00"
                },
                "rolled_forward_to": {
                    "type": "string"
                },
                "total_carried": {
                    "type": "string",
                    "example": "150000.00"
                },
                "total_returned": {
                    "type": "string",
                    "example": "150000.00"
                },
                "archives": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.BudgetArchive"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Grantdesk API",
	Description:      "Grantdesk tracks research project budgets: allocations, budget requests, transfers and fiscal year-end archival.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
