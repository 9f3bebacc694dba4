// Package main is the entry point for the lowcode CLI.
//
// lowcode reads collection definitions (YAML), creates their tables, derives
// input validation rules and generates CRUD controllers.
package main

func main() {
	Execute()
}
