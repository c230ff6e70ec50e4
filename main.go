package main

import (
	_ "github.com/joho/godotenv/autoload"
	"github.com/xf8b/xf8bot/cmd"
	"github.com/xf8b/xf8bot/common/log"
)

func main() {
	defer log.Sync()

	if err := cmd.Run(); err != nil {
		log.Fatal(err)
	}
}
