// Package docs holds the OpenAPI descriptions served under /swagger by both
// services.
package docs

import "github.com/swaggo/swag"

const ordersTemplate = `{
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
        "/orders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List orders",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "payment_status", "in": "query"},
                    {"type": "string", "name": "customer_id", "in": "query"},
                    {"type": "string", "name": "date_from", "in": "query"},
                    {"type": "string", "name": "date_to", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.ListResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Create an order",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.CreateOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Update order status and/or payment status",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.UpdateOrderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get an order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/orders/cj-sync": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["fulfillment"],
                "summary": "Create, cancel or refresh the provider order",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/payment/intent": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payment"],
                "summary": "Create a payment intent for an order",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/payment/confirm": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payment"],
                "summary": "Confirm a payment against the gateway",
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/httpx.ErrorBody"}}
                }
            }
        },
        "/payment/webhook": {
            "post": {
                "tags": ["payment"],
                "summary": "Stripe webhook",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/webhooks/{provider}": {
            "post": {
                "tags": ["orders"],
                "summary": "Provider order events",
                "description": "Signed order pushes from a dropshipping provider (HMAC-SHA256 of the body in the provider's signature header).",
                "parameters": [{"type": "string", "name": "provider", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/customers": {
            "get": {
                "tags": ["customers"],
                "summary": "Find a customer by email",
                "parameters": [{"type": "string", "name": "email", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["customers"],
                "summary": "Create a customer",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/customer.CreateRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/customers/{id}": {
            "get": {
                "tags": ["customers"],
                "summary": "Get a customer",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "definitions": {
        "httpx.ErrorBody": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string", "example": "VALIDATION_FAILED"},
                        "message": {"type": "string"},
                        "retryable": {"type": "boolean"},
                        "ref": {"type": "string"}
                    }
                }
            }
        },
        "order.CreateOrderRequest": {
            "type": "object",
            "properties": {
                "customer_id": {"type": "string", "example": "c1"},
                "customer_email": {"type": "string"},
                "total_amount": {"type": "string", "example": "59.98"},
                "shipping_amount": {"type": "string"},
                "tax_amount": {"type": "string"},
                "currency": {"type": "string", "example": "usd"},
                "items": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "product_id": {"type": "string"},
                            "quantity": {"type": "integer", "example": 2},
                            "price_at_time": {"type": "string", "example": "29.99"}
                        }
                    }
                }
            }
        },
        "order.UpdateOrderRequest": {
            "type": "object",
            "properties": {
                "orderId": {"type": "string"},
                "status": {"type": "string", "example": "processing"},
                "payment_status": {"type": "string", "example": "paid"}
            }
        },
        "order.ListResult": {
            "type": "object",
            "properties": {
                "orders": {"type": "array", "items": {"type": "object"}},
                "pagination": {
                    "type": "object",
                    "properties": {
                        "limit": {"type": "integer"},
                        "offset": {"type": "integer"},
                        "total": {"type": "integer"},
                        "has_more": {"type": "boolean"}
                    }
                }
            }
        },
        "customer.CreateRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "phone": {"type": "string"}
            }
        }
    }
}`

const productsTemplate = `{
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
        "/products": {
            "get": {
                "tags": ["products"],
                "summary": "List local products",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "source", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/products/search": {
            "get": {
                "tags": ["products"],
                "summary": "Search a provider catalogue",
                "parameters": [
                    {"type": "string", "name": "query", "in": "query", "required": true},
                    {"type": "string", "name": "provider", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/products/{id}": {
            "get": {
                "tags": ["products"],
                "summary": "Get a product",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/products/import": {
            "post": {
                "tags": ["products"],
                "summary": "Import a provider product",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.ImportRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/platforms": {
            "get": {"tags": ["platforms"], "summary": "Active platform", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["platforms"], "summary": "Switch the active platform", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/platforms/sync": {
            "post": {"tags": ["platforms"], "summary": "Sync the active provider catalogue", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/platforms/sync/stream": {
            "get": {"tags": ["platforms"], "summary": "Sync over a websocket, one JSON event per message", "responses": {"101": {"description": "Switching Protocols"}}}
        },
        "/platforms/status": {
            "get": {"tags": ["platforms"], "summary": "Provider status and last sync", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "product.ImportRequest": {
            "type": "object",
            "properties": {
                "provider": {"type": "string", "example": "cj"},
                "external_id": {"type": "string"},
                "variant_id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "image_url": {"type": "string"},
                "sku": {"type": "string"},
                "cost": {"type": "string", "example": "24.99"},
                "stock": {"type": "integer"},
                "profit_margin": {"type": "string", "example": "2.5"}
            }
        }
    }
}`

// SwaggerInfoOrders holds exported Swagger Info for the order service.
var SwaggerInfoOrders = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "LuxuryHub Order Service",
	Description:      "Orders, payments and provider fulfillment.",
	InfoInstanceName: "orders",
	SwaggerTemplate:  ordersTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

// SwaggerInfoProducts holds exported Swagger Info for the product service.
var SwaggerInfoProducts = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "LuxuryHub Product Service",
	Description:      "Provider search, import and catalogue sync.",
	InfoInstanceName: "products",
	SwaggerTemplate:  productsTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfoOrders.InstanceName(), SwaggerInfoOrders)
	swag.Register(SwaggerInfoProducts.InstanceName(), SwaggerInfoProducts)
}
