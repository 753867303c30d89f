package main

//go:generate swag init -g cmd/tracker/main.go -o docs

// @title           Options Watchlist Tracker API
// @version         0.1.0
// @description     Watchlist management, opportunity queries, and refresh job controls.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
