// Package docs provides generated OpenAPI documentation.
//
// Dataquard API
//
//	@title			Dataquard API
//	@version		1.0
//	@description	Privacy policy generation API with asynchronous LLM batch jobs.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/dataquard/dataquard
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/dataquard/serve.go -o ./swagger --parseDependency --parseInternal
