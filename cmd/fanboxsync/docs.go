package main

//go:generate swag init -g cmd/fanboxsync/main.go -o docs

// @title           Fanbox Viewer Sync API
// @version         0.1.0
// @description     Creator and post synchronization, local post state, and user data transfer.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
