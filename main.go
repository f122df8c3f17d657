package main

import "docketbot/internal/app"

func main() {
	app.Main()
}
