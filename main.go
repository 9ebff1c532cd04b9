package main

import (
	"log"

	mock "github.com/bridgelabs/lane-relayer/chains/mock/module"
	"github.com/bridgelabs/lane-relayer/cmd"
)

func main() {
	if err := cmd.Execute(
		mock.Module{},
	); err != nil {
		log.Fatal(err)
	}
}
