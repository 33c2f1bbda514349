package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Stagediff API
// @version 0.1
// @description Interactive documentation for the dev/prod comparison API surface.
// @contact.name Stagediff Maintainers
// @contact.url https://github.com/stagediff/stagediff
// @BasePath /
