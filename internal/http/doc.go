// Package httpapp provides the HTTP server for minipress.
//
//	@title						Minipress API
//	@version					1.0
//	@description				A minimal blogging backend.
//	@description
//	@description				## Authentication Flow
//	@description
//	@description				All /posts routes, reads included, require a bearer token.
//	@description
//	@description				### Step 1: Sign Up
//	@description				```bash
//	@description				curl -X POST /signup -d '{"username":"alice","password":"pw1"}'
//	@description				```
//	@description
//	@description				### Step 2: Log In
//	@description				```bash
//	@description				curl -X POST /login -d '{"username":"alice","password":"pw1"}'
//	@description				# Returns: {"access_token": "TOKEN"}
//	@description				```
//	@description
//	@description				### Step 3: Use the Token
//	@description				```bash
//	@description				curl -X POST /posts -H "Authorization: Bearer TOKEN" -d '{"title":"Hi","content":"World"}'
//	@description				```
//
//	@license.name				MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token from the /login endpoint
//
//	@tag.name					Auth
//	@tag.description			Register and log in. Tokens expire; log in again for a fresh one.
//
//	@tag.name					Posts
//	@tag.description			Create, read, update and delete posts. Ids are issued by an atomic counter and never reused.
package httpapp
