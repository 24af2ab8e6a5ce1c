package main

import (
	api "Linkup"
)

// @title Linkup API
// @version 1.0
// @description API for the social graph, notifications, and messaging
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Provide a valid JWT as: Bearer <token>
func main() {
	api.Run()
}
