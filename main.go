package main

import "github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/cmd"

func main() {
	cmd.Execute()
}
