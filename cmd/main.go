package main

import (
	"face-attend/internal"
	"face-attend/internal/service"
	"face-attend/tools"
	"log"
)

func main() {

	tools.LoadDotEnv()

	action := "run-server"

	processAction(action)
}

func processAction(arg string) {
	log.Println("Processing action:", arg)

	service := service.NewServiceWithRepo()

	switch arg {
	case "run-server":
		internal.RunServer(service)
	default:
		panic("invalid action")
	}
}
