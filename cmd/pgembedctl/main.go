package main

import (
	"log"

	"github.com/pgembed/pgembed/internal/pgembedctl"
)

func main() {
	if err := pgembedctl.Execute(); err != nil {
		log.Fatal(err)
	}
}
