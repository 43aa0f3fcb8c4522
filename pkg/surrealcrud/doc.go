// Package surrealcrud provides the HTTP application that serves the users and items
// resources over a document store.
//
// # Getting Started
//
// The application is driven from the command line through [Main]. Configuration comes
// from the environment and a few flags; see [Parse] for the full list.
//
//	# Start SurrealDB on 8001; the API defaults to 8000
//	surreal start --bind 127.0.0.1:8001 --user root --pass root
//
//	# Prepare the tables and start the server on port 8000
//	surrealcrud migrate
//	surrealcrud run
//
//	# Use MongoDB on another port
//	STORE_BACKEND=mongo surrealcrud run 9000
//
//	# Keep everything in memory
//	surrealcrud -backend memory run
//
// # API
//
// Each resource is mounted under its plural name:
//
//	GET    /users          list every user
//	POST   /users          create a user
//	GET    /users/{id}     fetch a user
//	PATCH  /users/{id}     change some fields of a user
//	DELETE /users/{id}     remove a user
//
// /items works the same way. Successful deletes return 204 with an empty body. A miss
// returns 404 with a body such as
//
//	{"detail": "user(_id='0b3d...') not found!"}
//
// and a request body that does not satisfy the resource schema returns 422 before the
// store is touched.
//
// Operational endpoints are GET /health and GET /metrics.
//
// # Database
//
// The database name defaults to the name of the working directory with dashes replaced
// by underscores, so a deployment checked out as "shop-api" uses the database "shop_api".
// DB_NAME overrides it.
package surrealcrud
