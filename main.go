package main

import "field-service-server/cmd"

func main() {
	cmd.Execute()
}
