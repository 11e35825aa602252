package main

import (
	"encoding/json"
	"flag"
	"fmt"
)

var configFile = flag.String("config", "config.json", "config file")

func main() {
	flag.Parse()

	config, err := LoadConfig(*configFile)
	if err != nil {
		panic(err)
	}

	data, _ := json.MarshalIndent(config, "", "  ")

	fmt.Printf("config:\n%s\n", data)

	server := NewServer(config)
	server.Run()
}
