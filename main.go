package main

import "guestdesk/internal/app"

func main() {
	app.Main()
}
